package dto

import "github.com/shopspring/decimal"

// AmountRequest é o payload de deposit/credit/debit
type AmountRequest struct {
	UserID      string          `json:"userId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ExternalRef string          `json:"external_ref,omitempty"` // opcional p/ idempotência
}
