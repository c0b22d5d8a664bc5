package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/player-props-platform/internal/settlement/repo"
	skafka "github.com/radieske/player-props-platform/internal/shared/kafka"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// BetSettledEvent monta o evento de uma liquidação já commitada
func BetSettledEvent(s repo.Settlement) events.BetSettled {
	return events.BetSettled{
		BetID:        s.Bet.ID,
		UserID:       s.Bet.UserID,
		Mode:         string(s.Bet.Mode),
		Status:       string(s.Result.Status),
		ActualPayout: s.Result.ActualPayout.StringFixed(2),
		CreditRef:    s.CreditRef,
		SettledAt:    time.Now().UTC(),
	}
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, s repo.Settlement) error {
	b, err := json.Marshal(BetSettledEvent(s))
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.Writer, s.Bet.ID, b)
}
