package betting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode define a modalidade da aposta
type Mode string

const (
	// SmartPlay tolera até 2 picks perdidos com pagamento parcial
	SmartPlay Mode = "SMART_PLAY"
	// PerfectPick exige que todos os picks sejam vencedores
	PerfectPick Mode = "PERFECT_PICK"
)

// Valid informa se o modo é conhecido
func (m Mode) Valid() bool { return m == SmartPlay || m == PerfectPick }

// Direction é o lado escolhido em relação à linha (over/under)
type Direction string

const (
	Over  Direction = "OVER"
	Under Direction = "UNDER"
)

func (d Direction) Valid() bool { return d == Over || d == Under }

// Outcome é o resultado de um pick individual
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeWon     Outcome = "WON"
	OutcomeLost    Outcome = "LOST"
)

// Status é o estado da aposta. Apenas PENDING admite transição.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusWon          Status = "WON"
	StatusLost         Status = "LOST"
	StatusPartiallyWon Status = "PARTIALLY_WON"
)

// Terminal indica que o status não aceita novas transições
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusPartiallyWon
}

// Pick é uma seleção over/under de uma estatística de jogador.
// Linha e odd são um snapshot do momento em que a aposta foi feita.
type Pick struct {
	ID           string
	BetID        string
	GameID       string
	TeamID       string
	PlayerID     string
	StatCategory string
	Line         decimal.Decimal
	Direction    Direction
	Odds         decimal.Decimal
	ActualValue  *decimal.Decimal
	Outcome      Outcome
}

// PropKey identifica a prop (jogo/jogador/estatística) à qual o pick pertence
func (p Pick) PropKey() string {
	return PropKey(p.GameID, p.PlayerID, p.StatCategory)
}

// PropKey monta a chave canônica de uma prop
func PropKey(gameID, playerID, statCategory string) string {
	return gameID + ":" + playerID + ":" + statCategory
}

// Bet agrega os picks de uma aposta
type Bet struct {
	ID              string
	UserID          string
	Mode            Mode
	Stake           decimal.Decimal
	PotentialPayout decimal.Decimal
	ActualPayout    *decimal.Decimal
	Status          Status
	Picks           []Pick
	CreatedAt       time.Time
	SettledAt       *time.Time
}

// Losses conta os picks perdidos
func (b Bet) Losses() int {
	n := 0
	for _, p := range b.Picks {
		if p.Outcome == OutcomeLost {
			n++
		}
	}
	return n
}

// Graded informa se todos os picks já possuem resultado
func (b Bet) Graded() bool {
	if len(b.Picks) == 0 {
		return false
	}
	for _, p := range b.Picks {
		if p.Outcome != OutcomeWon && p.Outcome != OutcomeLost {
			return false
		}
	}
	return true
}

// SettlementResult é o produto da liquidação de uma aposta
type SettlementResult struct {
	Status       Status
	ActualPayout decimal.Decimal
}
