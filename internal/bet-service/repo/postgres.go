package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/internal/shared/db"
	"github.com/radieske/player-props-platform/internal/shared/ledger"
)

var ErrNotFound = errors.New("bet not found")

// DebitRef é o external_ref do débito do stake no ledger
func DebitRef(betID string) string { return "bet:" + betID }

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// PlaceBet debita o stake e grava aposta + picks numa única transação.
// Saldo insuficiente aborta tudo com ledger.ErrInsufficientFunds.
// Preenche IDs, status e created_at em b; retorna o saldo após o débito.
func (p *Postgres) PlaceBet(ctx context.Context, b *betting.Bet) (decimal.Decimal, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Status = betting.StatusPending

	var newBalance decimal.Decimal
	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		var err error
		newBalance, err = ledger.Debit(ctx, tx, b.UserID, b.Stake, DebitRef(b.ID), "bet stake")
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO bets (id, user_id, mode, stake, potential_payout, status)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at`,
			b.ID, b.UserID, string(b.Mode), b.Stake, b.PotentialPayout, string(b.Status),
		).Scan(&b.CreatedAt); err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}

		for i := range b.Picks {
			pk := &b.Picks[i]
			pk.ID = uuid.NewString()
			pk.BetID = b.ID
			pk.Outcome = betting.OutcomePending
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bet_picks (id, bet_id, game_id, team_id, player_id, stat_category, line, direction, odds, outcome)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				pk.ID, b.ID, pk.GameID, pk.TeamID, pk.PlayerID, pk.StatCategory, pk.Line, string(pk.Direction), pk.Odds, string(pk.Outcome),
			); err != nil {
				return fmt.Errorf("insert pick %d: %w", i, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bet_transactions (bet_id, old_status, new_status, amount, external_ref, reason)
			VALUES ($1,'','PENDING',$2,$3,'placed')`,
			b.ID, b.Stake, DebitRef(b.ID),
		); err != nil {
			return fmt.Errorf("insert bet transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

const selectBet = `
	SELECT id, user_id, mode, stake, potential_payout, actual_payout, status, created_at, settled_at
	FROM bets`

type scanner interface{ Scan(dest ...any) error }

func scanBet(s scanner) (betting.Bet, error) {
	var (
		b       betting.Bet
		mode    string
		status  string
		actual  decimal.NullDecimal
		settled sql.NullTime
	)
	if err := s.Scan(&b.ID, &b.UserID, &mode, &b.Stake, &b.PotentialPayout, &actual, &status, &b.CreatedAt, &settled); err != nil {
		return betting.Bet{}, err
	}
	b.Mode = betting.Mode(mode)
	b.Status = betting.Status(status)
	if actual.Valid {
		v := actual.Decimal
		b.ActualPayout = &v
	}
	if settled.Valid {
		t := settled.Time
		b.SettledAt = &t
	}
	return b, nil
}

// Get retorna a aposta com seus picks
func (p *Postgres) Get(ctx context.Context, betID string) (betting.Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, selectBet+` WHERE id=$1`, betID))
	if errors.Is(err, sql.ErrNoRows) {
		return betting.Bet{}, ErrNotFound
	}
	if err != nil {
		return betting.Bet{}, fmt.Errorf("select bet: %w", err)
	}

	picks, err := p.picksByBet(ctx, []string{b.ID})
	if err != nil {
		return betting.Bet{}, err
	}
	b.Picks = picks[b.ID]
	return b, nil
}

// ListByUser lista as apostas mais recentes do usuário
func (p *Postgres) ListByUser(ctx context.Context, userID string, limit int) ([]betting.Bet, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, selectBet+` WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select bets: %w", err)
	}
	defer rows.Close()

	var (
		out []betting.Bet
		ids []string
	)
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	picks, err := p.picksByBet(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Picks = picks[out[i].ID]
	}
	return out, nil
}

func (p *Postgres) picksByBet(ctx context.Context, betIDs []string) (map[string][]betting.Pick, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, bet_id, game_id, COALESCE(team_id, ''), player_id, stat_category, line, direction, odds, actual_value, outcome
		FROM bet_picks
		WHERE bet_id = ANY($1)
		ORDER BY bet_id, id`, pq.Array(betIDs))
	if err != nil {
		return nil, fmt.Errorf("select picks: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]betting.Pick, len(betIDs))
	for rows.Next() {
		var (
			pk      betting.Pick
			dir     string
			outcome string
			actual  decimal.NullDecimal
		)
		if err := rows.Scan(&pk.ID, &pk.BetID, &pk.GameID, &pk.TeamID, &pk.PlayerID, &pk.StatCategory, &pk.Line, &dir, &pk.Odds, &actual, &outcome); err != nil {
			return nil, err
		}
		pk.Direction = betting.Direction(dir)
		pk.Outcome = betting.Outcome(outcome)
		if actual.Valid {
			v := actual.Decimal
			pk.ActualValue = &v
		}
		out[pk.BetID] = append(out[pk.BetID], pk)
	}
	return out, rows.Err()
}
