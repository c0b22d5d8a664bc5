package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client serializa as escritas numa conexão (gorilla aceita um writer por vez)
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, v)
}

// Hub gerencia conexões WebSocket e inscrições por jogo
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// gameID -> conjunto de clientes
	subs map[string]map[*client]struct{}
}

// NewHub cria o hub com a política de origem informada
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS atende uma conexão: subscribe/unsubscribe por gameId e ping
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer func() {
		h.drop(c)
		_ = conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			if msg.GameID == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.GameID]; !ok {
				h.subs[msg.GameID] = make(map[*client]struct{})
			}
			h.subs[msg.GameID][c] = struct{}{}
			h.mu.Unlock()
			_ = c.write(mustJSON(map[string]string{"type": "subscribed", "gameId": msg.GameID}))
		case "unsubscribe":
			h.mu.Lock()
			h.remove(msg.GameID, c)
			h.mu.Unlock()
		case "ping":
			_ = c.write(mustJSON(map[string]string{"type": "pong"}))
		}
	}
}

// Broadcast envia a atualização aos inscritos no jogo
func (h *Hub) Broadcast(update PropUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.GameID]))
	for c := range h.subs[update.GameID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b := mustJSON(update)
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.String("gameId", update.GameID), zap.Error(err))
		}
	}
}

// Subscribers retorna quantos clientes acompanham o jogo
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for gameID := range h.subs {
		h.remove(gameID, c)
	}
}

// remove exige h.mu travado
func (h *Hub) remove(gameID string, c *client) {
	if set, ok := h.subs[gameID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, gameID)
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
