package producer

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
)

func TestBetPlacedEvent(t *testing.T) {
	b := betting.Bet{
		ID:              "b1",
		UserID:          "u1",
		Mode:            betting.SmartPlay,
		Stake:           decimal.RequireFromString("20"),
		PotentialPayout: decimal.RequireFromString("417.03"),
		Picks: []betting.Pick{
			{GameID: "g1", PlayerID: "p1", StatCategory: "points", Line: decimal.RequireFromString("24.5"), Direction: betting.Over, Odds: decimal.RequireFromString("1.9")},
		},
	}

	e := BetPlacedEvent(b)
	if e.Stake != "20.00" || e.PotentialPayout != "417.03" || e.DebitRef != "bet:b1" {
		t.Errorf("unexpected event: %+v", e)
	}
	if len(e.Picks) != 1 || e.Picks[0].Direction != "OVER" || e.Picks[0].Line != "24.5" {
		t.Errorf("unexpected picks: %+v", e.Picks)
	}
	if e.PlacedAt.IsZero() {
		t.Error("placed_at not set")
	}
}
