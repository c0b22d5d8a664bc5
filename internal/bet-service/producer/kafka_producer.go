package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/player-props-platform/internal/bet-service/repo"
	"github.com/radieske/player-props-platform/internal/shared/betting"
	skafka "github.com/radieske/player-props-platform/internal/shared/kafka"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// BetPlacedEvent monta o evento a partir da aposta já persistida
func BetPlacedEvent(b betting.Bet) events.BetPlaced {
	e := events.BetPlaced{
		BetID:           b.ID,
		UserID:          b.UserID,
		Mode:            string(b.Mode),
		Stake:           b.Stake.StringFixed(2),
		PotentialPayout: b.PotentialPayout.StringFixed(2),
		DebitRef:        repo.DebitRef(b.ID),
		PlacedAt:        b.CreatedAt,
		Picks:           make([]events.BetPickPlaced, len(b.Picks)),
	}
	if e.PlacedAt.IsZero() {
		e.PlacedAt = time.Now().UTC()
	}
	for i, p := range b.Picks {
		e.Picks[i] = events.BetPickPlaced{
			GameID:       p.GameID,
			PlayerID:     p.PlayerID,
			StatCategory: p.StatCategory,
			Line:         p.Line.String(),
			Direction:    string(p.Direction),
			Odds:         p.Odds.String(),
		}
	}
	return e
}

// PublishBetPlaced usa o betID como key
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.Writer, e.BetID, b)
}
