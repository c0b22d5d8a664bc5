package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
)

type QuoteResponse struct {
	Mode            string          `json:"mode"`
	Picks           int             `json:"picks"`
	Stake           decimal.Decimal `json:"stake"`
	CombinedOdds    decimal.Decimal `json:"combinedOdds"`
	Multiplier      decimal.Decimal `json:"multiplier"`
	PotentialPayout decimal.Decimal `json:"potentialPayout"`
}

type PlaceBetResponse struct {
	BetID           string          `json:"betId"`
	Status          string          `json:"status"` // PENDING
	PotentialPayout decimal.Decimal `json:"potentialPayout"`
	NewBalance      decimal.Decimal `json:"newBalance"`
}

type PickResponse struct {
	ID           string           `json:"id"`
	GameID       string           `json:"gameId"`
	TeamID       string           `json:"teamId,omitempty"`
	PlayerID     string           `json:"playerId"`
	StatCategory string           `json:"statCategory"`
	Line         decimal.Decimal  `json:"line"`
	Direction    string           `json:"direction"`
	Odds         decimal.Decimal  `json:"odds"`
	ActualValue  *decimal.Decimal `json:"actualValue,omitempty"`
	Outcome      string           `json:"outcome"`
}

type BetResponse struct {
	BetID           string           `json:"betId"`
	UserID          string           `json:"userId"`
	Mode            string           `json:"mode"`
	Stake           decimal.Decimal  `json:"stake"`
	PotentialPayout decimal.Decimal  `json:"potentialPayout"`
	ActualPayout    *decimal.Decimal `json:"actualPayout,omitempty"`
	Status          string           `json:"status"`
	Picks           []PickResponse   `json:"picks"`
	CreatedAt       time.Time        `json:"createdAt"`
	SettledAt       *time.Time       `json:"settledAt,omitempty"`
}

// ErrorResponse também carrega o valor corrente quando a odd/linha mudou (409)
type ErrorResponse struct {
	Error   string           `json:"error"`
	PropKey string           `json:"propKey,omitempty"`
	Field   string           `json:"field,omitempty"`
	Current *decimal.Decimal `json:"current,omitempty"`
}

func FromBet(b betting.Bet) BetResponse {
	out := BetResponse{
		BetID:           b.ID,
		UserID:          b.UserID,
		Mode:            string(b.Mode),
		Stake:           b.Stake,
		PotentialPayout: b.PotentialPayout,
		ActualPayout:    b.ActualPayout,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		SettledAt:       b.SettledAt,
		Picks:           make([]PickResponse, len(b.Picks)),
	}
	for i, p := range b.Picks {
		out.Picks[i] = PickResponse{
			ID:           p.ID,
			GameID:       p.GameID,
			TeamID:       p.TeamID,
			PlayerID:     p.PlayerID,
			StatCategory: p.StatCategory,
			Line:         p.Line,
			Direction:    string(p.Direction),
			Odds:         p.Odds,
			ActualValue:  p.ActualValue,
			Outcome:      string(p.Outcome),
		}
	}
	return out
}
