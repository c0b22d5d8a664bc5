package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal de broadcast e repassa cada atualização ao Hub
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				Dispatch(log, hub, msg.Payload)
			}
		}
	}()
}

// Dispatch decodifica uma mensagem do canal e faz o broadcast
func Dispatch(log *zap.Logger, hub *Hub, payload string) {
	var upd PropUpdate
	if err := json.Unmarshal([]byte(payload), &upd); err != nil || upd.GameID == "" {
		log.Warn("ws subscriber: invalid message", zap.Error(err))
		return
	}
	hub.Broadcast(upd)
}
