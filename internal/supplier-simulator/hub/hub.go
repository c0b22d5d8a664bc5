package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientConn é uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// Hub gerencia os clientes conectados e faz broadcast para todos eles
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger

	OnConnect    func(delta int) // métricas: +1 / -1
	OnSent       func()
	OnWriteError func()
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *Hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if h.OnConnect != nil {
		h.OnConnect(1)
	}
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		if h.OnConnect != nil {
			h.OnConnect(-1)
		}
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Clients retorna o número de conexões ativas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast envia cada mensagem para todos os clientes conectados.
// O lock de escrita garante um único writer por conexão.
func (h *Hub) Broadcast(msgs ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range msgs {
		b, err := json.Marshal(v)
		if err != nil {
			h.log.Warn("marshal supplier message", zap.Error(err))
			continue
		}
		for id, c := range h.clients {
			_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
				_ = c.conn.Close()
				if h.OnWriteError != nil {
					h.OnWriteError()
				}
				continue
			}
			if h.OnSent != nil {
				h.OnSent()
			}
		}
	}
}

// ServeWS faz o upgrade e mantém o cliente registrado até desconectar
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	id := fmt.Sprintf("%d", time.Now().UnixNano())
	h.add(&clientConn{id: id, conn: conn})

	go func() {
		defer func() {
			h.remove(id)
			_ = conn.Close()
		}()
		for {
			// lê e descarta mensagens do cliente; erro = desconexão
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
