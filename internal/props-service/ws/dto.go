package ws

import "encoding/json"

// ClientMsg é a mensagem enviada pelo cliente WebSocket
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	GameID string `json:"gameId"` // requerido em subscribe/unsubscribe
}

// PropUpdate é repassado aos clientes inscritos no jogo
type PropUpdate struct {
	GameID  string          `json:"gameId"`
	Payload json.RawMessage `json:"payload"`
}
