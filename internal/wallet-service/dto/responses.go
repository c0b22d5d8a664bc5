package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletResponse struct {
	UserID   string          `json:"userId"`
	WalletID string          `json:"walletId,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
}

type LedgerEntry struct {
	ID           int64           `json:"id"`
	Operation    string          `json:"operation"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	ExternalRef  string          `json:"externalRef"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}
