package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
)

var validate = validator.New()

type PickRequest struct {
	GameID       string          `json:"gameId" validate:"required"`
	TeamID       string          `json:"teamId"`
	PlayerID     string          `json:"playerId" validate:"required"`
	StatCategory string          `json:"statCategory" validate:"required"`
	Line         decimal.Decimal `json:"line"`
	Direction    string          `json:"direction" validate:"required,oneof=OVER UNDER"`
	Odds         decimal.Decimal `json:"odds"` // odd que o cliente viu
}

type QuoteRequest struct {
	Mode  string          `json:"mode" validate:"required,oneof=SMART_PLAY PERFECT_PICK"`
	Stake decimal.Decimal `json:"stake"`
	Picks []PickRequest   `json:"picks" validate:"required,min=1,dive"`
}

type PlaceBetRequest struct {
	UserID string `json:"userId" validate:"required"`
	QuoteRequest
}

// Validate checa tags e os campos decimais, que o validator não compara
func (q *QuoteRequest) Validate() error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	if !q.Stake.IsPositive() {
		return errors.New("stake must be > 0")
	}
	if !q.Stake.Equal(q.Stake.Round(2)) {
		return errors.New("stake must have at most 2 decimal places")
	}
	for i, p := range q.Picks {
		if p.Odds.LessThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("picks[%d].odds must be > 1", i)
		}
		if p.Line.IsNegative() {
			return fmt.Errorf("picks[%d].line must be >= 0", i)
		}
	}
	return nil
}

func (p *PlaceBetRequest) Validate() error {
	if err := validate.Var(p.UserID, "required"); err != nil {
		return errors.New("userId required")
	}
	return p.QuoteRequest.Validate()
}

// ToPicks converte o payload em picks pendentes do domínio
func (q *QuoteRequest) ToPicks() []betting.Pick {
	out := make([]betting.Pick, len(q.Picks))
	for i, p := range q.Picks {
		out[i] = betting.Pick{
			GameID:       p.GameID,
			TeamID:       p.TeamID,
			PlayerID:     p.PlayerID,
			StatCategory: p.StatCategory,
			Line:         p.Line,
			Direction:    betting.Direction(p.Direction),
			Odds:         p.Odds,
			Outcome:      betting.OutcomePending,
		}
	}
	return out
}
