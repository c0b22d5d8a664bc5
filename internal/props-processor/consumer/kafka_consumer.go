package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/internal/props-processor/pubsub"
	"github.com/radieske/player-props-platform/internal/shared/cache"
	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Repo interface {
	UpsertCurrent(ctx context.Context, e events.PropUpdate) error
	InsertHistory(ctx context.Context, e events.PropUpdate) error
}

// LineCache guarda a linha corrente lida pelo bet-service na validação
type LineCache interface {
	Set(ctx context.Context, p cache.PropLine) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome prop_updates, atualiza o cache de linhas, persiste no banco
// e avisa o props-service via Redis Pub/Sub.
// Callbacks de métricas são opcionais.
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	Repo        Repo
	Cache       LineCache
	Broadcaster Broadcaster // opcional
	Channel     string

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m.Value)
	}
}

// Handle processa uma mensagem de prop_updates
func (p *Processor) Handle(ctx context.Context, value []byte) {
	var ev events.PropUpdate
	if err := json.Unmarshal(value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		return
	}
	line, err := ToPropLine(ev)
	if err != nil {
		p.Log.Warn("invalid prop line", zap.String("prop", ev.PropKey()), zap.Error(err))
		p.fail("decode")
		return
	}

	// cache primeiro: é o que a validação de apostas lê
	if err := p.Cache.Set(ctx, line); err != nil {
		p.Log.Warn("redis set failed", zap.Error(err))
		p.fail("cache")
		// não bloqueia persistência se falhar o cache
	} else if p.OnCached != nil {
		p.OnCached()
	}

	if err := p.Repo.UpsertCurrent(ctx, ev); err != nil {
		p.Log.Warn("db upsert failed", zap.Error(err))
		p.fail("db_upsert")
		return
	}
	if err := p.Repo.InsertHistory(ctx, ev); err != nil {
		p.Log.Warn("db insert history failed", zap.Error(err))
		p.fail("db_history")
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}

	p.broadcast(ctx, ev)
}

func (p *Processor) broadcast(ctx context.Context, ev events.PropUpdate) {
	if p.Broadcaster == nil {
		return
	}
	b, err := pubsub.EncodeUpdate(ev)
	if err != nil {
		p.fail("broadcast")
		return
	}

	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(bctx, p.Channel, b); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.Error(err))
		p.fail("broadcast")
	}
}

// ToPropLine converte o evento (valores em string) para a linha do cache
func ToPropLine(ev events.PropUpdate) (cache.PropLine, error) {
	line, err := decimal.NewFromString(ev.Line)
	if err != nil {
		return cache.PropLine{}, fmt.Errorf("line: %w", err)
	}
	over, err := decimal.NewFromString(ev.OverOdds)
	if err != nil {
		return cache.PropLine{}, fmt.Errorf("over_odds: %w", err)
	}
	under, err := decimal.NewFromString(ev.UnderOdds)
	if err != nil {
		return cache.PropLine{}, fmt.Errorf("under_odds: %w", err)
	}
	return cache.PropLine{
		GameID:       ev.GameID,
		PlayerID:     ev.PlayerID,
		StatCategory: ev.StatCategory,
		Line:         line,
		OverOdds:     over,
		UnderOdds:    under,
		Version:      ev.Version,
		UpdatedAt:    ev.UpdatedAt,
	}, nil
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
