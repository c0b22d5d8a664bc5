package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda a resposta de props por jogo por alguns segundos
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keyGame(gameID string) string { return "props:bygame:" + gameID }

func (c *Cache) GetProps(ctx context.Context, gameID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyGame(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetProps(ctx context.Context, gameID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyGame(gameID), b, c.TTL).Err()
}
