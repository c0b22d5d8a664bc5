package betting

import "github.com/shopspring/decimal"

// Grade compara o valor observado com a linha. Empate na linha conta como derrota.
func Grade(d Direction, line, actual decimal.Decimal) Outcome {
	switch d {
	case Over:
		if actual.GreaterThan(line) {
			return OutcomeWon
		}
	case Under:
		if actual.LessThan(line) {
			return OutcomeWon
		}
	}
	return OutcomeLost
}
