package events

import "time"

// Evento emitido pelo settlement-worker depois que a liquidação foi commitada.
type BetSettled struct {
	BetID        string    `json:"bet_id"`
	UserID       string    `json:"user_id"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"` // "WON" | "LOST" | "PARTIALLY_WON"
	ActualPayout string    `json:"actual_payout"`
	CreditRef    string    `json:"credit_ref,omitempty"`
	SettledAt    time.Time `json:"settled_at"`
}
