package props

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/player-props-platform/internal/shared/betting"
	"github.com/radieske/player-props-platform/internal/shared/cache"
)

var (
	// ErrUnavailable indica prop sem linha corrente no cache (quando exigida)
	ErrUnavailable = errors.New("prop line unavailable")
	// ErrClosed indica prop cujo stat já saiu; não aceita novos picks
	ErrClosed = errors.New("prop closed")
)

// DriftError indica que a linha ou a odd mudou desde que o cliente a viu
type DriftError struct {
	PropKey   string
	Field     string // "line" | "odds"
	Submitted decimal.Decimal
	Current   decimal.Decimal
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s changed for %s: submitted=%s current=%s", e.Field, e.PropKey, e.Submitted, e.Current)
}

// LineSource é satisfeito por *cache.PropStore
type LineSource interface {
	Get(ctx context.Context, gameID, playerID, statCategory string) (cache.PropLine, bool, error)
}

// Validator compara cada pick com a linha corrente publicada pelo props-processor
type Validator struct {
	Lines         LineSource
	RequireCached bool // false: prop fora do cache é aceita com a odd enviada
}

func NewValidator(l LineSource, requireCached bool) *Validator {
	return &Validator{Lines: l, RequireCached: requireCached}
}

// Check retorna ErrClosed, ErrUnavailable ou *DriftError no primeiro pick recusado
func (v *Validator) Check(ctx context.Context, picks []betting.Pick) error {
	for _, p := range picks {
		cur, ok, err := v.Lines.Get(ctx, p.GameID, p.PlayerID, p.StatCategory)
		if err != nil {
			return fmt.Errorf("read prop %s: %w", p.PropKey(), err)
		}
		if !ok {
			if v.RequireCached {
				return fmt.Errorf("%w: %s", ErrUnavailable, p.PropKey())
			}
			continue
		}
		if cur.Closed {
			return fmt.Errorf("%w: %s", ErrClosed, p.PropKey())
		}
		if !cur.Line.Equal(p.Line) {
			return &DriftError{PropKey: p.PropKey(), Field: "line", Submitted: p.Line, Current: cur.Line}
		}
		if odd := cur.OddsFor(p.Direction); !odd.Equal(p.Odds) {
			return &DriftError{PropKey: p.PropKey(), Field: "odds", Submitted: p.Odds, Current: odd}
		}
	}
	return nil
}
