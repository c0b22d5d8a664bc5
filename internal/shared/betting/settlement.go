package betting

import "github.com/shopspring/decimal"

// fração do payout potencial paga no SmartPlay por número de picks perdidos
var smartPlayShares = map[int]decimal.Decimal{
	0: decimal.NewFromInt(1),
	1: decimal.RequireFromString("0.60"),
	2: decimal.RequireFromString("0.25"),
}

// SmartPlayShare retorna a fração paga para n derrotas (zero a partir de 3)
func SmartPlayShare(losses int) decimal.Decimal {
	if s, ok := smartPlayShares[losses]; ok {
		return s
	}
	return decimal.Zero
}

// Settle determina o status final e o payout real de uma aposta totalmente graduada.
// Não altera a aposta; o chamador persiste o resultado e credita o saldo na mesma transação.
func Settle(b Bet) (SettlementResult, error) {
	if b.Status != StatusPending {
		return SettlementResult{}, &IllegalStateError{BetID: b.ID, Status: b.Status, Reason: "bet already settled"}
	}
	if !b.Graded() {
		return SettlementResult{}, &IllegalStateError{BetID: b.ID, Status: b.Status, Reason: "bet has pending picks"}
	}

	losses := b.Losses()

	switch b.Mode {
	case PerfectPick:
		if losses == 0 {
			return SettlementResult{Status: StatusWon, ActualPayout: b.PotentialPayout}, nil
		}
		return SettlementResult{Status: StatusLost, ActualPayout: decimal.Zero}, nil

	case SmartPlay:
		switch {
		case losses == 0:
			return SettlementResult{Status: StatusWon, ActualPayout: b.PotentialPayout}, nil
		case losses <= 2:
			return SettlementResult{
				Status:       StatusPartiallyWon,
				ActualPayout: b.PotentialPayout.Mul(SmartPlayShare(losses)).Round(2),
			}, nil
		default:
			return SettlementResult{Status: StatusLost, ActualPayout: decimal.Zero}, nil
		}
	}

	return SettlementResult{}, &IllegalStateError{BetID: b.ID, Status: b.Status, Reason: "unknown mode " + string(b.Mode)}
}
