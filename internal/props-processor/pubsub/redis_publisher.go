package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// WSUpdate é o payload publicado no canal; o props-service repassa aos clientes inscritos no jogo
type WSUpdate struct {
	GameID  string            `json:"gameId"`
	Payload events.PropUpdate `json:"payload"`
}

// EncodeUpdate monta a mensagem do canal para uma linha de prop
func EncodeUpdate(ev events.PropUpdate) ([]byte, error) {
	return json.Marshal(WSUpdate{GameID: ev.GameID, Payload: ev})
}

// RedisBroadcaster publica no Pub/Sub consumido pelas instâncias do props-service
type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.r.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}
