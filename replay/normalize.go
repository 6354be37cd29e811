package replay

import (
	"fmt"
	"strings"

	"craps-lite/craps"
	"craps-lite/dice"
)

const (
	actionPlace   = "place"
	actionMove    = "move"
	actionClear   = "clear"
	actionRoll    = "roll"
	actionWorking = "working"
)

type normalizedAction struct {
	typ     string
	bet     craps.BetKind
	to      craps.BetKind
	amount  int64
	dice    *dice.Roll
	working bool
	expect  craps.ErrorKind
}

type normalizedSpec struct {
	cfg     craps.Config
	start   *craps.Snapshot
	dice    []dice.Roll
	seed    int64
	actions []normalizedAction
}

func normalizeSpec(spec ScenarioSpec) (normalizedSpec, error) {
	var out normalizedSpec

	if spec.Variant != "" && !strings.EqualFold(spec.Variant, "craps") {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_variant", Message: "only craps is supported"}
	}
	if spec.Table.Min <= 0 || spec.Table.Max < spec.Table.Min {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_limits", Message: fmt.Sprintf("invalid table limits %d-%d", spec.Table.Min, spec.Table.Max)}
	}
	if spec.Table.Bankroll < 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_bankroll", Message: "table.bankroll must be >= 0"}
	}
	mode := craps.SettlementComplete
	if spec.Table.Settlement != "" {
		m, err := craps.ParseSettlementMode(spec.Table.Settlement)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_settlement", Message: err.Error()}
		}
		mode = m
	}
	out.cfg = craps.Config{
		TableMinimum:      spec.Table.Min,
		TableMaximum:      spec.Table.Max,
		StartingBankroll:  spec.Table.Bankroll,
		ChipDenominations: append([]int64(nil), spec.Table.Chips...),
		Settlement:        mode,
		Working:           spec.Table.Working,
	}

	if spec.Start != nil {
		start, err := normalizeStart(*spec.Start, spec.Table)
		if err != nil {
			return out, err
		}
		out.start = start
	}

	for i, s := range spec.Dice {
		r, err := dice.Parse(s)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_dice", Message: fmt.Sprintf("dice[%d]: %v", i, err)}
		}
		out.dice = append(out.dice, r)
	}
	out.seed = seedFromSpec(spec.RNG)

	if len(spec.Actions) == 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_actions", Message: "at least 1 action is required"}
	}
	for i, a := range spec.Actions {
		na, err := normalizeAction(a)
		if err != nil {
			return out, &ReplayError{StepIndex: int32(i), Reason: "invalid_action", Message: err.Error()}
		}
		out.actions = append(out.actions, na)
	}
	return out, nil
}

func normalizeStart(start StartSpec, table TableSpec) (*craps.Snapshot, error) {
	snap := &craps.Snapshot{
		Point:        start.Point,
		Bankroll:     start.Bankroll,
		Wagers:       make(map[craps.BetKind]int64, len(start.Bets)),
		Working:      table.Working,
		TableMinimum: table.Min,
		TableMaximum: table.Max,
	}
	for key, amt := range start.Bets {
		k, err := craps.ParseBetKind(key)
		if err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "invalid_start", Message: err.Error()}
		}
		snap.Wagers[k] = amt
	}
	if start.Dice != "" {
		r, err := dice.Parse(start.Dice)
		if err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "invalid_start", Message: err.Error()}
		}
		snap.Dice = r
	}
	return snap, nil
}

func normalizeAction(a ActionSpec) (normalizedAction, error) {
	na := normalizedAction{typ: strings.ToLower(strings.TrimSpace(a.Type)), amount: a.Amount, working: a.Working}
	var err error
	switch na.typ {
	case actionPlace:
		if na.bet, err = craps.ParseBetKind(a.Bet); err != nil {
			return na, err
		}
	case actionMove:
		if na.bet, err = craps.ParseBetKind(a.Bet); err != nil {
			return na, err
		}
		if na.to, err = craps.ParseBetKind(a.To); err != nil {
			return na, err
		}
	case actionRoll:
		if a.Dice != "" {
			r, err := dice.Parse(a.Dice)
			if err != nil {
				return na, err
			}
			na.dice = &r
		}
	case actionClear, actionWorking:
	default:
		return na, fmt.Errorf("unknown action type %q", a.Type)
	}
	if a.ExpectError != "" {
		kind, ok := errorKindByName(a.ExpectError)
		if !ok {
			return na, fmt.Errorf("unknown error kind %q", a.ExpectError)
		}
		na.expect = kind
	}
	return na, nil
}

func errorKindByName(name string) (craps.ErrorKind, bool) {
	for k, s := range craps.ErrorKindDictionary {
		if s == name {
			return k, true
		}
	}
	return 0, false
}

func seedFromSpec(rng *RNGSpec) int64 {
	if rng == nil {
		return 0
	}
	return rng.Seed
}
