package events

import "time"

// PropUpdate é a linha corrente de uma prop de jogador, publicada em "prop_updates"
type PropUpdate struct {
	GameID       string    `json:"game_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	TeamID       string    `json:"team_id"`
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	StatCategory string    `json:"stat_category"` // "points", "rebounds", ...
	Line         string    `json:"line"`
	OverOdds     string    `json:"over_odds"`
	UnderOdds    string    `json:"under_odds"`
	UpdatedAt    time.Time `json:"updated_at"`
	Source       string    `json:"source"`
	Version      int       `json:"version"` // incrementado a cada atualização
}

// StatResult é o valor observado de uma estatística ao fim do jogo, publicado em "stat_results"
type StatResult struct {
	GameID       string    `json:"game_id"`
	PlayerID     string    `json:"player_id"`
	StatCategory string    `json:"stat_category"`
	ActualValue  string    `json:"actual_value"`
	FinalizedAt  time.Time `json:"finalized_at"`
	Source       string    `json:"source"`
}

// Tipos de mensagem do fornecedor
const (
	EnvelopeProp = "prop"
	EnvelopeStat = "stat"
)

// SupplierEnvelope é o frame enviado pelo fornecedor via WebSocket.
// Exatamente um de Prop/Stat vem preenchido conforme Type.
type SupplierEnvelope struct {
	Type string      `json:"type"`
	Prop *PropUpdate `json:"prop,omitempty"`
	Stat *StatResult `json:"stat,omitempty"`
}

// PropKey identifica a prop (jogo/jogador/estatística); usado como key no Kafka
func (p PropUpdate) PropKey() string {
	return p.GameID + ":" + p.PlayerID + ":" + p.StatCategory
}

func (s StatResult) PropKey() string {
	return s.GameID + ":" + s.PlayerID + ":" + s.StatCategory
}
