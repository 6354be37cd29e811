package craps

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected table operation.
type ErrorKind byte

const (
	KindInsufficientFunds ErrorKind = iota + 1
	KindTableLimitExceeded
	KindIllegalPhase
	KindBelowBuyMinimum
	KindBelowTableMinimum
	KindNoLineBet
	KindNoSuchWager
	KindInvalidBet
	KindInvalidAmount
	KindInvalidDice
	KindRollInProgress
)

var ErrorKindDictionary = map[ErrorKind]string{
	KindInsufficientFunds:  "insufficient_funds",
	KindTableLimitExceeded: "table_limit_exceeded",
	KindIllegalPhase:       "illegal_phase",
	KindBelowBuyMinimum:    "below_buy_minimum",
	KindBelowTableMinimum:  "below_table_minimum",
	KindNoLineBet:          "no_line_bet",
	KindNoSuchWager:        "no_such_wager",
	KindInvalidBet:         "invalid_bet",
	KindInvalidAmount:      "invalid_amount",
	KindInvalidDice:        "invalid_dice",
	KindRollInProgress:     "roll_in_progress",
}

func (k ErrorKind) String() string {
	if s, ok := ErrorKindDictionary[k]; ok {
		return s
	}
	return "unknown"
}

// EngineError is returned by every rejected table operation. The table is
// left unchanged.
type EngineError struct {
	Kind    ErrorKind
	Message string
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Is matches any EngineError of the same kind, so the sentinels below work
// with errors.Is regardless of message.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInsufficientFunds  = &EngineError{Kind: KindInsufficientFunds}
	ErrTableLimitExceeded = &EngineError{Kind: KindTableLimitExceeded}
	ErrIllegalPhase       = &EngineError{Kind: KindIllegalPhase}
	ErrBelowBuyMinimum    = &EngineError{Kind: KindBelowBuyMinimum}
	ErrBelowTableMinimum  = &EngineError{Kind: KindBelowTableMinimum}
	ErrNoLineBet          = &EngineError{Kind: KindNoLineBet}
	ErrNoSuchWager        = &EngineError{Kind: KindNoSuchWager}
	ErrInvalidBet         = &EngineError{Kind: KindInvalidBet}
	ErrInvalidAmount      = &EngineError{Kind: KindInvalidAmount}
	ErrInvalidDice        = &EngineError{Kind: KindInvalidDice}
	ErrRollInProgress     = &EngineError{Kind: KindRollInProgress}
)

func newError(kind ErrorKind, format string, args ...any) error {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind of an engine error.
func KindOf(err error) (ErrorKind, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
