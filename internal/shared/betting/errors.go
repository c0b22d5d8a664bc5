package betting

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState sinaliza violação de pré-condição (bug do chamador, não reprocessar)
	ErrIllegalState  = errors.New("illegal bet state")
	ErrPickCount     = errors.New("invalid pick count for mode")
	ErrUnknownMode   = errors.New("unknown bet mode")
	ErrDuplicateProp = errors.New("duplicate prop in bet")
)

// IllegalStateError carrega o contexto da violação e casa com ErrIllegalState via errors.Is
type IllegalStateError struct {
	BetID  string
	Status Status
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("bet %s (%s): %s", e.BetID, e.Status, e.Reason)
}

func (e *IllegalStateError) Is(target error) bool { return target == ErrIllegalState }
