package events

import "time"

// BetPickPlaced é o snapshot de um pick no momento da aposta
type BetPickPlaced struct {
	GameID       string `json:"game_id"`
	PlayerID     string `json:"player_id"`
	StatCategory string `json:"stat_category"`
	Line         string `json:"line"`
	Direction    string `json:"direction"` // "OVER" | "UNDER"
	Odds         string `json:"odds"`
}

// Evento publicado no tópico "bet_placed" após o commit da aposta.
// Valores monetários trafegam como string decimal para não perder precisão.
type BetPlaced struct {
	BetID           string          `json:"bet_id"`
	UserID          string          `json:"user_id"`
	Mode            string          `json:"mode"`
	Stake           string          `json:"stake"`
	PotentialPayout string          `json:"potential_payout"`
	Picks           []BetPickPlaced `json:"picks"`
	DebitRef        string          `json:"debit_ref"` // external_ref do débito no ledger
	PlacedAt        time.Time       `json:"placed_at"`
}
