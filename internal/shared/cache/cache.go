package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
)

func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// PropLine é a linha corrente de uma prop, como fica no Redis
type PropLine struct {
	GameID       string          `json:"gameId"`
	PlayerID     string          `json:"playerId"`
	StatCategory string          `json:"statCategory"`
	Line         decimal.Decimal `json:"line"`
	OverOdds     decimal.Decimal `json:"overOdds"`
	UnderOdds    decimal.Decimal `json:"underOdds"`
	Version      int             `json:"version"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Closed       bool            `json:"closed,omitempty"` // stat já publicado; não aceita apostas
}

// OddsFor retorna a odd do lado escolhido
func (p PropLine) OddsFor(d betting.Direction) decimal.Decimal {
	if d == betting.Under {
		return p.UnderOdds
	}
	return p.OverOdds
}

// PropKey gera a chave Redis da linha corrente: props:{game}:{player}:{stat}
func PropKey(gameID, playerID, statCategory string) string {
	return "props:" + betting.PropKey(gameID, playerID, statCategory)
}

// ClosedKey marca a prop como encerrada: props:closed:{game}:{player}:{stat}.
// Chave separada para que um prop_update atrasado não reabra a prop.
func ClosedKey(gameID, playerID, statCategory string) string {
	return "props:closed:" + betting.PropKey(gameID, playerID, statCategory)
}

const defaultClosedTTL = 24 * time.Hour

// PropStore lê e grava linhas correntes de props no Redis.
// Escrito pelo props-processor, encerrado pelo settlement-worker e lido
// pelo bet-service na validação das odds.
type PropStore struct {
	Client    *redis.Client
	TTL       time.Duration
	ClosedTTL time.Duration // 0 = 24h
}

func NewPropStore(c *redis.Client, ttl time.Duration) *PropStore {
	return &PropStore{Client: c, TTL: ttl, ClosedTTL: defaultClosedTTL}
}

func (s *PropStore) Set(ctx context.Context, p PropLine) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, PropKey(p.GameID, p.PlayerID, p.StatCategory), b, s.TTL).Err()
}

// Close encerra a prop. A marca sobrevive ao TTL da linha.
func (s *PropStore) Close(ctx context.Context, gameID, playerID, statCategory string) error {
	ttl := s.ClosedTTL
	if ttl <= 0 {
		ttl = defaultClosedTTL
	}
	return s.Client.Set(ctx, ClosedKey(gameID, playerID, statCategory), "1", ttl).Err()
}

// Get retorna (linha, true) se existir ou se a prop estiver encerrada;
// (zero, false) se nada estiver no cache
func (s *PropStore) Get(ctx context.Context, gameID, playerID, statCategory string) (PropLine, bool, error) {
	vals, err := s.Client.MGet(ctx,
		PropKey(gameID, playerID, statCategory),
		ClosedKey(gameID, playerID, statCategory),
	).Result()
	if err != nil {
		return PropLine{}, false, err
	}
	p, ok, err := decodeLine(vals[0], vals[1])
	if err != nil {
		return PropLine{}, false, err
	}
	if ok && p.GameID == "" {
		p.GameID, p.PlayerID, p.StatCategory = gameID, playerID, statCategory
	}
	return p, ok, nil
}

// decodeLine monta a linha a partir do resultado do MGET (nil = chave ausente)
func decodeLine(line, closed any) (PropLine, bool, error) {
	var p PropLine
	if line != nil {
		raw, ok := line.(string)
		if !ok {
			return PropLine{}, false, fmt.Errorf("prop line: unexpected type %T", line)
		}
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return PropLine{}, false, err
		}
	}
	if closed != nil {
		p.Closed = true
	}
	return p, line != nil || closed != nil, nil
}
