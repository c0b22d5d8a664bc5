package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrateLockID serializa o Migrate entre serviços que sobem juntos
const migrateLockID = 7301

var schema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id       TEXT PRIMARY KEY,
		user_id  TEXT NOT NULL UNIQUE,
		balance  NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version  BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id             BIGSERIAL PRIMARY KEY,
		wallet_id      TEXT NOT NULL REFERENCES wallets(id),
		operation_type TEXT NOT NULL,
		amount         NUMERIC(18,2) NOT NULL,
		balance_after  NUMERIC(18,2) NOT NULL,
		external_ref   TEXT NOT NULL UNIQUE,
		description    TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		mode             TEXT NOT NULL,
		stake            NUMERIC(18,2) NOT NULL,
		potential_payout NUMERIC(18,2) NOT NULL,
		actual_payout    NUMERIC(18,2),
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		settled_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS bets_user_created_idx ON bets (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bet_picks (
		id            TEXT PRIMARY KEY,
		bet_id        TEXT NOT NULL REFERENCES bets(id),
		game_id       TEXT NOT NULL,
		team_id       TEXT,
		player_id     TEXT NOT NULL,
		stat_category TEXT NOT NULL,
		line          NUMERIC(10,1) NOT NULL,
		direction     TEXT NOT NULL,
		odds          NUMERIC(10,4) NOT NULL,
		actual_value  NUMERIC(10,1),
		outcome       TEXT NOT NULL DEFAULT 'PENDING'
	)`,
	`CREATE INDEX IF NOT EXISTS bet_picks_prop_idx ON bet_picks (game_id, player_id, stat_category) WHERE outcome = 'PENDING'`,
	`CREATE TABLE IF NOT EXISTS bet_transactions (
		id           BIGSERIAL PRIMARY KEY,
		bet_id       TEXT NOT NULL REFERENCES bets(id),
		old_status   TEXT NOT NULL,
		new_status   TEXT NOT NULL,
		amount       NUMERIC(18,2) NOT NULL,
		external_ref TEXT NOT NULL,
		reason       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS props_current (
		game_id       TEXT NOT NULL,
		player_id     TEXT NOT NULL,
		stat_category TEXT NOT NULL,
		home_team     TEXT NOT NULL,
		away_team     TEXT NOT NULL,
		team_id       TEXT NOT NULL DEFAULT '',
		player_name   TEXT NOT NULL DEFAULT '',
		line          NUMERIC(10,1) NOT NULL,
		over_odds     NUMERIC(10,4) NOT NULL,
		under_odds    NUMERIC(10,4) NOT NULL,
		version       BIGINT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (game_id, player_id, stat_category)
	)`,
	`CREATE TABLE IF NOT EXISTS props_history (
		id            BIGSERIAL PRIMARY KEY,
		game_id       TEXT NOT NULL,
		player_id     TEXT NOT NULL,
		stat_category TEXT NOT NULL,
		line          NUMERIC(10,1) NOT NULL,
		over_odds     NUMERIC(10,4) NOT NULL,
		under_odds    NUMERIC(10,4) NOT NULL,
		version       BIGINT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate cria as tabelas que ainda não existem. Idempotente.
func Migrate(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockID); err != nil {
			return fmt.Errorf("migrate lock: %w", err)
		}
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate step %d: %w", i, err)
			}
		}
		return nil
	})
}
