package betting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MultiplierTable mapeia modo -> quantidade de picks -> multiplicador da casa.
// Tratada como configuração imutável: o Calculator guarda uma cópia própria.
type MultiplierTable map[Mode]map[int]decimal.Decimal

// DefaultMultipliers retorna uma cópia nova da curva padrão
func DefaultMultipliers() MultiplierTable {
	return MultiplierTable{
		SmartPlay: {
			1: decimal.RequireFromString("0.9"),
			2: decimal.RequireFromString("1.1"),
			3: decimal.RequireFromString("1.3"),
			4: decimal.RequireFromString("1.6"),
			5: decimal.RequireFromString("2.0"),
			6: decimal.RequireFromString("2.5"),
			7: decimal.RequireFromString("3.0"),
			8: decimal.RequireFromString("3.8"),
		},
		PerfectPick: {
			1:  decimal.RequireFromString("1.0"),
			2:  decimal.RequireFromString("1.3"),
			3:  decimal.RequireFromString("1.8"),
			4:  decimal.RequireFromString("2.5"),
			5:  decimal.RequireFromString("3.5"),
			6:  decimal.RequireFromString("5.0"),
			7:  decimal.RequireFromString("7.5"),
			8:  decimal.RequireFromString("12.0"),
			9:  decimal.RequireFromString("20.0"),
			10: decimal.RequireFromString("35.0"),
			11: decimal.RequireFromString("60.0"),
			12: decimal.RequireFromString("100.0"),
		},
	}
}

// limites de picks por modo, validados antes do cálculo
var maxPicks = map[Mode]int{
	SmartPlay:   8,
	PerfectPick: 12,
}

// MaxPicks retorna o máximo de picks aceito pelo modo (0 se desconhecido)
func MaxPicks(m Mode) int { return maxPicks[m] }

// ValidatePickCount verifica os limites de cardinalidade de uma aposta
func ValidatePickCount(m Mode, n int) error {
	max, ok := maxPicks[m]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	if n < 1 || n > max {
		return fmt.Errorf("%w: %s accepts 1..%d picks, got %d", ErrPickCount, m, max, n)
	}
	return nil
}

// ValidatePicks aplica as regras de montagem da aposta: cardinalidade do modo
// e no máximo um pick por prop (jogo/jogador/estatística)
func ValidatePicks(m Mode, picks []Pick) error {
	if err := ValidatePickCount(m, len(picks)); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		k := p.PropKey()
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProp, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Calculator calcula o payout potencial cotado no momento da aposta.
// Não tem estado mutável; pode ser compartilhado entre goroutines.
type Calculator struct {
	table MultiplierTable
}

// NewCalculator copia a tabela recebida
func NewCalculator(t MultiplierTable) *Calculator {
	cp := make(MultiplierTable, len(t))
	for mode, row := range t {
		r := make(map[int]decimal.Decimal, len(row))
		for n, m := range row {
			r[n] = m
		}
		cp[mode] = r
	}
	return &Calculator{table: cp}
}

// Multiplier retorna o multiplicador do modo para n picks.
// Fora da tabela cai em 1.0; a validação de cardinalidade a montante torna isso inalcançável.
func (c *Calculator) Multiplier(m Mode, n int) decimal.Decimal {
	if v, ok := c.table[m][n]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// CombinedOdds é o produto das odds decimais dos picks
func CombinedOdds(picks []Pick) decimal.Decimal {
	out := decimal.NewFromInt(1)
	for _, p := range picks {
		out = out.Mul(p.Odds)
	}
	return out
}

// PotentialPayout = round(stake * combinedOdds * multiplier, 2).
// Lista vazia retorna zero.
func (c *Calculator) PotentialPayout(picks []Pick, m Mode, stake decimal.Decimal) decimal.Decimal {
	if len(picks) == 0 {
		return decimal.Zero
	}
	return stake.
		Mul(CombinedOdds(picks)).
		Mul(c.Multiplier(m, len(picks))).
		Round(2)
}
