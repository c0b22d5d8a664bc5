package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// MessageReader é o subconjunto do *kafka.Reader usado aqui (commit manual)
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type StatHandler interface {
	HandleStat(ctx context.Context, r events.StatResult) error
}

// Consumer lê stat_results, aplica com retry e manda para a DLQ o que não passar.
// O offset só é commitado depois do processamento (ou do envio à DLQ).
type Consumer struct {
	Log     *zap.Logger
	Reader  MessageReader
	DLQ     MessageWriter // opcional
	Handler StatHandler

	MaxRetries int
	Backoff    time.Duration // base; espera Backoff*(tentativa)

	OnConsumed func()       // métricas
	OnDLQ      func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run consome até o contexto ser cancelado
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka fetch failed", zap.Error(err))
			c.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if c.OnConsumed != nil {
			c.OnConsumed()
		}

		c.process(ctx, m)

		if err := c.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			c.fail("commit")
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	var r events.StatResult
	if err := json.Unmarshal(m.Value, &r); err != nil {
		c.Log.Warn("invalid stat_result", zap.Error(err))
		c.fail("decode")
		c.toDLQ(ctx, m, err)
		return
	}

	err := c.Handler.HandleStat(ctx, r)
	for i := 0; err != nil && i < c.MaxRetries; i++ {
		c.Log.Warn("stat_result retry", zap.String("prop", r.PropKey()), zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.Backoff * time.Duration(i+1)):
		}
		err = c.Handler.HandleStat(ctx, r)
	}
	if err != nil {
		c.Log.Error("stat_result failed", zap.String("prop", r.PropKey()), zap.Error(err))
		c.fail("handle")
		c.toDLQ(ctx, m, err)
	}
}

func (c *Consumer) toDLQ(ctx context.Context, m kafka.Message, cause error) {
	if c.DLQ == nil {
		return
	}
	dlq := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "error", Value: []byte(cause.Error())}},
	}
	if err := c.DLQ.WriteMessages(ctx, dlq); err != nil {
		c.Log.Error("dlq write failed", zap.Error(err))
		c.fail("dlq")
		return
	}
	if c.OnDLQ != nil {
		c.OnDLQ()
	}
}

func (c *Consumer) fail(stage string) {
	if c.OnError != nil {
		c.OnError(stage)
	}
}
