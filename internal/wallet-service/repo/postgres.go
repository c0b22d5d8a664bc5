package repo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/db"
	"github.com/radieske/player-props-platform/internal/shared/ledger"
)

// Postgres implementa operações de carteira em banco, sobre o ledger compartilhado
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance decimal.Decimal, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if _, err := ledger.EnsureWallet(ctx, tx, userID); err != nil {
			return err
		}
		walletID, balance, err = ledger.Balance(ctx, tx, userID)
		return err
	})
	return walletID, balance, err
}

// Deposit cria a carteira se necessário e credita o valor
func (p *Postgres) Deposit(ctx context.Context, userID string, amount decimal.Decimal, externalRef string) (walletID string, newBalance decimal.Decimal, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if walletID, err = ledger.EnsureWallet(ctx, tx, userID); err != nil {
			return err
		}
		newBalance, err = ledger.Credit(ctx, tx, userID, amount, clientRef("deposit", externalRef), "deposit")
		return err
	})
	return walletID, newBalance, err
}

// Credit credita uma carteira existente (ex.: ajuste manual)
func (p *Postgres) Credit(ctx context.Context, userID string, amount decimal.Decimal, externalRef string) (newBalance decimal.Decimal, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		newBalance, err = ledger.Credit(ctx, tx, userID, amount, clientRef("credit", externalRef), "credit")
		return err
	})
	return newBalance, err
}

// Debit debita uma carteira existente; ledger.ErrInsufficientFunds se o saldo não cobre
func (p *Postgres) Debit(ctx context.Context, userID string, amount decimal.Decimal, externalRef string) (newBalance decimal.Decimal, err error) {
	err = db.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		newBalance, err = ledger.Debit(ctx, tx, userID, amount, clientRef("debit", externalRef), "debit")
		return err
	})
	return newBalance, err
}

// Ledger lista as últimas movimentações
func (p *Postgres) Ledger(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	return ledger.History(ctx, p.db, userID, limit)
}

// clientRef isola refs vindas da API dos namespaces internos (bet:, settle:)
func clientRef(kind, ref string) string {
	if ref == "" {
		return "" // ledger gera uma ref única
	}
	return kind + ":" + ref
}
