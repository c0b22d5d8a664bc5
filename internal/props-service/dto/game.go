package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game representa um jogo com props abertas
type Game struct {
	GameID   string `json:"gameId"`
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	Props    int    `json:"props"`
}

// Prop é a linha corrente de uma estatística de jogador
type Prop struct {
	GameID       string          `json:"gameId"`
	TeamID       string          `json:"teamId"`
	PlayerID     string          `json:"playerId"`
	PlayerName   string          `json:"playerName"`
	StatCategory string          `json:"statCategory"`
	Line         decimal.Decimal `json:"line"`
	OverOdds     decimal.Decimal `json:"overOdds"`
	UnderOdds    decimal.Decimal `json:"underOdds"`
	Version      int             `json:"version"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
