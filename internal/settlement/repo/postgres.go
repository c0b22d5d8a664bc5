package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/internal/shared/db"
	"github.com/radieske/player-props-platform/internal/shared/ledger"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

var (
	ErrNotFound = errors.New("bet not found")
	// ErrNotReady: aposta ainda tem picks pendentes; não é erro, só não liquida agora
	ErrNotReady = errors.New("bet has pending picks")
)

// CreditRef é o external_ref do crédito de liquidação no ledger
func CreditRef(betID string) string { return "settle:" + betID }

// Settlement é o resultado commitado de uma liquidação
type Settlement struct {
	Bet       betting.Bet
	Result    betting.SettlementResult
	CreditRef string // vazio quando não houve crédito
}

// Postgres grava graduação de picks e liquidação de apostas
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GradeStat grava valor observado e resultado em todos os picks pendentes da prop.
// Retorna quantos picks foram graduados e as apostas PENDING com pick nessa prop,
// incluindo as graduadas numa entrega anterior do mesmo evento (retry).
func (p *Postgres) GradeStat(ctx context.Context, r events.StatResult) (graded int, betIDs []string, err error) {
	actual, err := decimal.NewFromString(r.ActualValue)
	if err != nil {
		return 0, nil, fmt.Errorf("actual value %q: %w", r.ActualValue, err)
	}

	type pending struct {
		id, betID string
		line      decimal.Decimal
		dir       string
	}

	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, bet_id, line, direction
			FROM bet_picks
			WHERE game_id=$1 AND player_id=$2 AND stat_category=$3 AND outcome='PENDING'
			ORDER BY bet_id, id
			FOR UPDATE`, r.GameID, r.PlayerID, r.StatCategory)
		if err != nil {
			return fmt.Errorf("select pending picks: %w", err)
		}
		var picks []pending
		for rows.Next() {
			var pk pending
			if err := rows.Scan(&pk.id, &pk.betID, &pk.line, &pk.dir); err != nil {
				rows.Close()
				return err
			}
			picks = append(picks, pk)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, pk := range picks {
			outcome := betting.Grade(betting.Direction(pk.dir), pk.line, actual)
			if _, err := tx.ExecContext(ctx,
				`UPDATE bet_picks SET actual_value=$1, outcome=$2 WHERE id=$3`,
				actual, string(outcome), pk.id); err != nil {
				return fmt.Errorf("grade pick %s: %w", pk.id, err)
			}
		}
		graded = len(picks)

		betIDs, err = pendingBetsForProp(ctx, tx, r)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return graded, betIDs, nil
}

// SettleBet liquida uma aposta numa única transação:
// lock da aposta, Settle, status/payout, crédito no ledger e auditoria.
// Aposta já liquidada devolve *betting.IllegalStateError sem creditar de novo.
func (p *Postgres) SettleBet(ctx context.Context, betID string) (Settlement, error) {
	var out Settlement
	err := db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		b, err := lockBet(ctx, tx, betID)
		if err != nil {
			return err
		}
		if b.Picks, err = loadOutcomes(ctx, tx, betID); err != nil {
			return err
		}
		if b.Status == betting.StatusPending && !b.Graded() {
			return ErrNotReady
		}

		res, err := betting.Settle(b)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bets SET status=$1, actual_payout=$2, settled_at=NOW()
			WHERE id=$3`, string(res.Status), res.ActualPayout, betID); err != nil {
			return fmt.Errorf("update bet: %w", err)
		}

		ref := ""
		if res.ActualPayout.IsPositive() {
			ref = CreditRef(betID)
			if _, err := ledger.Credit(ctx, tx, b.UserID, res.ActualPayout, ref, "bet settlement"); err != nil {
				return fmt.Errorf("credit payout: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bet_transactions (bet_id, old_status, new_status, amount, external_ref, reason)
			VALUES ($1,$2,$3,$4,$5,'settled')`,
			betID, string(b.Status), string(res.Status), res.ActualPayout, ref,
		); err != nil {
			return fmt.Errorf("insert bet transaction: %w", err)
		}

		out = Settlement{Bet: b, Result: res, CreditRef: ref}
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return out, nil
}

// PendingGraded lista apostas PENDING sem nenhum pick pendente (varredura)
func (p *Postgres) PendingGraded(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT b.id
		FROM bets b
		WHERE b.status='PENDING'
		  AND EXISTS (SELECT 1 FROM bet_picks p WHERE p.bet_id=b.id)
		  AND NOT EXISTS (SELECT 1 FROM bet_picks p WHERE p.bet_id=b.id AND p.outcome='PENDING')
		ORDER BY b.created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select graded bets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func pendingBetsForProp(ctx context.Context, tx *sql.Tx, r events.StatResult) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT p.bet_id
		FROM bet_picks p
		JOIN bets b ON b.id = p.bet_id
		WHERE p.game_id=$1 AND p.player_id=$2 AND p.stat_category=$3 AND b.status='PENDING'
		ORDER BY p.bet_id`, r.GameID, r.PlayerID, r.StatCategory)
	if err != nil {
		return nil, fmt.Errorf("select affected bets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func lockBet(ctx context.Context, tx *sql.Tx, betID string) (betting.Bet, error) {
	var (
		b      betting.Bet
		mode   string
		status string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, mode, stake, potential_payout, status
		FROM bets WHERE id=$1 FOR UPDATE`, betID,
	).Scan(&b.ID, &b.UserID, &mode, &b.Stake, &b.PotentialPayout, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return betting.Bet{}, ErrNotFound
	}
	if err != nil {
		return betting.Bet{}, fmt.Errorf("lock bet: %w", err)
	}
	b.Mode = betting.Mode(mode)
	b.Status = betting.Status(status)
	return b, nil
}

func loadOutcomes(ctx context.Context, tx *sql.Tx, betID string) ([]betting.Pick, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, outcome FROM bet_picks WHERE bet_id=$1 ORDER BY id`, betID)
	if err != nil {
		return nil, fmt.Errorf("select picks: %w", err)
	}
	defer rows.Close()

	var picks []betting.Pick
	for rows.Next() {
		var (
			pk      betting.Pick
			outcome string
		)
		if err := rows.Scan(&pk.ID, &outcome); err != nil {
			return nil, err
		}
		pk.BetID = betID
		pk.Outcome = betting.Outcome(outcome)
		picks = append(picks, pk)
	}
	return picks, rows.Err()
}
