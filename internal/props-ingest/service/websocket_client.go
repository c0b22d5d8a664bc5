package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// Sink recebe cada envelope lido do fornecedor
type Sink interface {
	Publish(ctx context.Context, env events.SupplierEnvelope) error
}

// WSClient consome o feed WebSocket do fornecedor (linhas de props e
// resultados de estatísticas) e repassa cada frame ao Sink.
type WSClient struct {
	URL       string      // endpoint WebSocket do fornecedor
	Log       *zap.Logger // logger estruturado
	Sink      Sink
	Reconnect time.Duration // espera entre reconexões; 3s se zero

	OnInvalid func() // métricas: frame descartado
}

// Start conecta e escuta até o contexto ser cancelado, reconectando com espera fixa
func (c *WSClient) Start(ctx context.Context) {
	wait := c.Reconnect
	if wait <= 0 {
		wait = 3 * time.Second
	}
	for {
		if err := c.connectAndListen(ctx); err != nil {
			c.Log.Warn("supplier connection closed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		case <-time.After(wait):
		}
	}
}

func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to supplier WS", zap.String("url", c.URL))

	// fecha a conexão no cancelamento para destravar o ReadMessage
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var env events.SupplierEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.Log.Warn("invalid supplier frame", zap.Error(err))
			c.invalid()
			continue
		}

		if err := c.Sink.Publish(ctx, env); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("failed to publish supplier frame", zap.String("type", env.Type), zap.Error(err))
			c.invalid()
		}
	}
}

func (c *WSClient) invalid() {
	if c.OnInvalid != nil {
		c.OnInvalid()
	}
}
