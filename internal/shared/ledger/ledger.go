// Package ledger concentra as operações de saldo executadas dentro de uma
// transação do chamador. Aposta e liquidação usam a mesma transação que grava
// a aposta, então débito/crédito e mudança de status são atômicos.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrRefConflict       = errors.New("external ref already used by another operation")
)

// Tipos de operação gravados em wallet_ledger
const (
	OpCredit = "CREDIT"
	OpDebit  = "DEBIT"
)

// Querier é satisfeito por *sql.DB e *sql.Tx
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Entry é uma linha do histórico da carteira
type Entry struct {
	ID           int64
	WalletID     string
	Operation    string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	ExternalRef  string
	Description  string
	CreatedAt    time.Time
}

// EnsureWallet retorna o walletId do usuário, criando a carteira com saldo zero se não existir
func EnsureWallet(ctx context.Context, tx *sql.Tx, userID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("select wallet: %w", err)
	}

	id = uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets(id, user_id, balance, version) VALUES($1,$2,0,1) ON CONFLICT (user_id) DO NOTHING`,
		id, userID); err != nil {
		return "", fmt.Errorf("insert wallet: %w", err)
	}
	// outra transação pode ter criado a carteira primeiro
	if err := tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1`, userID).Scan(&id); err != nil {
		return "", fmt.Errorf("reselect wallet: %w", err)
	}
	return id, nil
}

// Balance lê o saldo corrente sem lock
func Balance(ctx context.Context, q Querier, userID string) (walletID string, balance decimal.Decimal, err error) {
	err = q.QueryRowContext(ctx, `SELECT id, balance FROM wallets WHERE user_id=$1`, userID).Scan(&walletID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", decimal.Zero, ErrWalletNotFound
	}
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("select balance: %w", err)
	}
	return walletID, balance, nil
}

// Credit soma amount ao saldo do usuário e registra no ledger.
// Idempotente por ref: repetir a mesma ref com a mesma carteira, operação e valor
// não credita de novo e retorna o saldo atual. Ref igual com outros dados é ErrRefConflict.
func Credit(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, ref, description string) (decimal.Decimal, error) {
	return apply(ctx, tx, OpCredit, userID, amount, ref, description)
}

// Debit subtrai amount do saldo; falha com ErrInsufficientFunds se o saldo não cobre.
// Mesma regra de idempotência do Credit.
func Debit(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, ref, description string) (decimal.Decimal, error) {
	return apply(ctx, tx, OpDebit, userID, amount, ref, description)
}

func apply(ctx context.Context, tx *sql.Tx, op, userID string, amount decimal.Decimal, ref, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if ref == "" {
		ref = uuid.New().String()
	}

	// lock pessimista na carteira: serializa operações do mesmo usuário
	var walletID string
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT id, balance FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrWalletNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock wallet: %w", err)
	}

	// Idempotência: ref já aplicada só vale como replay da mesma operação
	var prevWallet, prevOp string
	var prevAmount decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT wallet_id, operation_type, amount FROM wallet_ledger WHERE external_ref=$1`, ref).
		Scan(&prevWallet, &prevOp, &prevAmount)
	if err == nil {
		if prevWallet != walletID || prevOp != op || !prevAmount.Equal(amount) {
			return decimal.Zero, fmt.Errorf("%w: ref=%s", ErrRefConflict, ref)
		}
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("check ledger ref: %w", err)
	}

	newBalance := balance.Add(amount)
	if op == OpDebit {
		if balance.LessThan(amount) {
			return decimal.Zero, ErrInsufficientFunds
		}
		newBalance = balance.Sub(amount)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, version = version + 1 WHERE id=$2`, newBalance, walletID); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount, balance_after, external_ref, description)
		VALUES($1,$2,$3,$4,$5,$6)`,
		walletID, op, amount, newBalance, ref, description); err != nil {
		return decimal.Zero, fmt.Errorf("insert ledger: %w", err)
	}

	return newBalance, nil
}

// History lista as últimas operações da carteira, mais recentes primeiro
func History(ctx context.Context, q Querier, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := q.QueryContext(ctx, `
		SELECT l.id, l.wallet_id, l.operation_type, l.amount, l.balance_after, l.external_ref, COALESCE(l.description, ''), l.created_at
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id=$1
		ORDER BY l.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Operation, &e.Amount, &e.BalanceAfter, &e.ExternalRef, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
