// Package feed gera o fluxo simulado do fornecedor: linhas de props que oscilam
// enquanto o jogo está aberto e, no fim do jogo, o valor observado de cada estatística.
package feed

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

// PlayerProp é uma linha base do catálogo
type PlayerProp struct {
	TeamID       string
	PlayerID     string
	PlayerName   string
	StatCategory string
	BaseLine     decimal.Decimal
}

// Matchup é um confronto do catálogo; cada rodada abre um novo jogo com ele
type Matchup struct {
	HomeTeam string
	AwayTeam string
	Props    []PlayerProp
}

func DefaultCatalog() []Matchup {
	d := decimal.RequireFromString
	return []Matchup{
		{HomeTeam: "BOS", AwayTeam: "NYK", Props: []PlayerProp{
			{TeamID: "BOS", PlayerID: "tatum", PlayerName: "Jayson Tatum", StatCategory: "points", BaseLine: d("27.5")},
			{TeamID: "BOS", PlayerID: "tatum", PlayerName: "Jayson Tatum", StatCategory: "rebounds", BaseLine: d("8.5")},
			{TeamID: "NYK", PlayerID: "brunson", PlayerName: "Jalen Brunson", StatCategory: "points", BaseLine: d("26.5")},
			{TeamID: "NYK", PlayerID: "brunson", PlayerName: "Jalen Brunson", StatCategory: "assists", BaseLine: d("6.5")},
		}},
		{HomeTeam: "LAL", AwayTeam: "GSW", Props: []PlayerProp{
			{TeamID: "LAL", PlayerID: "james", PlayerName: "LeBron James", StatCategory: "points", BaseLine: d("25.5")},
			{TeamID: "LAL", PlayerID: "davis", PlayerName: "Anthony Davis", StatCategory: "rebounds", BaseLine: d("12.5")},
			{TeamID: "GSW", PlayerID: "curry", PlayerName: "Stephen Curry", StatCategory: "threes", BaseLine: d("4.5")},
			{TeamID: "GSW", PlayerID: "curry", PlayerName: "Stephen Curry", StatCategory: "points", BaseLine: d("28.5")},
		}},
	}
}

type game struct {
	id      string
	matchup Matchup
	lines   []decimal.Decimal // linha corrente por prop
	ticks   int
}

// Feed mantém os jogos abertos. Seguro para uso concorrente.
type Feed struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	catalog   []Matchup
	games     []*game
	gameTicks int
	round     int
	version   int
	source    string
	now       func() time.Time
}

// New cria o feed; cada jogo fica aberto por gameTicks ticks antes de finalizar
func New(catalog []Matchup, gameTicks int, seed int64, source string) *Feed {
	f := &Feed{
		rnd:       rand.New(rand.NewSource(seed)),
		catalog:   catalog,
		gameTicks: gameTicks,
		source:    source,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for i := range catalog {
		f.games = append(f.games, f.open(i))
	}
	return f
}

func (f *Feed) open(i int) *game {
	f.round++
	m := f.catalog[i]
	g := &game{id: fmt.Sprintf("GAME_%03d", f.round), matchup: m, lines: make([]decimal.Decimal, len(m.Props))}
	for j, p := range m.Props {
		g.lines[j] = p.BaseLine
	}
	return g
}

// Tick avança um passo: publica as linhas de todos os jogos abertos e finaliza
// (com os stat results) os que chegaram ao fim, abrindo um novo jogo no lugar.
func (f *Feed) Tick() []events.SupplierEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.version++
	var out []events.SupplierEnvelope
	for i, g := range f.games {
		g.ticks++
		if f.gameTicks > 0 && g.ticks > f.gameTicks {
			out = append(out, f.finalize(g)...)
			f.games[i] = f.open(i)
			g = f.games[i]
		}
		out = append(out, f.props(g)...)
	}
	return out
}

// Finalize encerra o jogo informado imediatamente; false se não estiver aberto
func (f *Feed) Finalize(gameID string) ([]events.SupplierEnvelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, g := range f.games {
		if g.id == gameID {
			out := f.finalize(g)
			f.games[i] = f.open(i)
			return out, true
		}
	}
	return nil, false
}

// GameIDs lista os jogos abertos
func (f *Feed) GameIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.games))
	for i, g := range f.games {
		ids[i] = g.id
	}
	return ids
}

func (f *Feed) props(g *game) []events.SupplierEnvelope {
	out := make([]events.SupplierEnvelope, 0, len(g.lines))
	for j, p := range g.matchup.Props {
		// linha anda em passos de 0.5 e nunca fica abaixo de 0.5
		step := decimal.NewFromFloat(0.5).Mul(decimal.NewFromInt(int64(f.rnd.Intn(3) - 1)))
		if next := g.lines[j].Add(step); next.GreaterThanOrEqual(decimal.NewFromFloat(0.5)) {
			g.lines[j] = next
		}
		over := f.odds()
		out = append(out, events.SupplierEnvelope{Type: events.EnvelopeProp, Prop: &events.PropUpdate{
			GameID:       g.id,
			HomeTeam:     g.matchup.HomeTeam,
			AwayTeam:     g.matchup.AwayTeam,
			TeamID:       p.TeamID,
			PlayerID:     p.PlayerID,
			PlayerName:   p.PlayerName,
			StatCategory: p.StatCategory,
			Line:         g.lines[j].String(),
			OverOdds:     over.StringFixed(2),
			UnderOdds:    complement(over).StringFixed(2),
			UpdatedAt:    f.now(),
			Source:       f.source,
			Version:      f.version,
		}})
	}
	return out
}

func (f *Feed) finalize(g *game) []events.SupplierEnvelope {
	out := make([]events.SupplierEnvelope, 0, len(g.lines))
	for j, p := range g.matchup.Props {
		// valor inteiro em torno da linha: ±40%
		spread := g.lines[j].Mul(decimal.NewFromFloat(0.8 * (f.rnd.Float64() - 0.5)))
		actual := g.lines[j].Add(spread).Round(0)
		if actual.IsNegative() {
			actual = decimal.Zero
		}
		out = append(out, events.SupplierEnvelope{Type: events.EnvelopeStat, Stat: &events.StatResult{
			GameID:       g.id,
			PlayerID:     p.PlayerID,
			StatCategory: p.StatCategory,
			ActualValue:  actual.String(),
			FinalizedAt:  f.now(),
			Source:       f.source,
		}})
	}
	return out
}

// odds over entre 1.70 e 2.10
func (f *Feed) odds() decimal.Decimal {
	return decimal.NewFromFloat(1.70 + f.rnd.Float64()*0.40).Round(2)
}

// complement devolve a odd do lado oposto com ~5% de margem da casa
func complement(o decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	implied := decimal.NewFromFloat(1.05).Sub(one.Div(o))
	return one.Div(implied).Round(2)
}
