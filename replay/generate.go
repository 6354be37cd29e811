package replay

import (
	"errors"
	"fmt"

	"craps-lite/codec"
	"craps-lite/craps"
	"craps-lite/dice"
)

const defaultTableID = "replay_local"

// stepRoller hands out a roll action's own dice first, then the scenario's
// dice list or seeded RNG.
type stepRoller struct {
	next     *dice.Roll
	fallback dice.Roller
}

func (r *stepRoller) Next() (dice.Roll, error) {
	if r.next != nil {
		roll := *r.next
		r.next = nil
		return roll, nil
	}
	return r.fallback.Next()
}

func GenerateReplayTape(spec ScenarioSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	roller := &stepRoller{fallback: dice.NewScriptedRoller(ns.dice...)}
	if ns.seed != 0 && len(ns.dice) == 0 {
		roller.fallback = dice.NewSeededRoller(ns.seed)
	}
	cfg := ns.cfg
	cfg.Roller = roller
	table, err := craps.NewTable(cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}
	if ns.start != nil {
		if err := table.Restore(*ns.start); err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "invalid_start", Message: err.Error()}
		}
	}

	builder := newTapeBuilder(defaultTableID)
	if err := builder.push(codec.TypeSnapshot, codec.SnapshotPayload(table.Snapshot())); err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "encode_failed", Message: err.Error()}
	}

	rolls := 0
	for stepIdx, action := range ns.actions {
		before := table.Snapshot()
		var stepErr error

		switch action.typ {
		case actionPlace:
			p, snap, err := table.PlaceBet(action.bet, action.amount)
			stepErr = err
			if err == nil {
				builder.push(codec.TypeBetPlaced, codec.PlacementPayload(p, snap))
			}
		case actionMove:
			snap, err := table.MoveBet(action.bet, action.to)
			stepErr = err
			if err == nil {
				builder.push(codec.TypeBetMoved, codec.MovePayload(action.bet, action.to, snap))
			}
		case actionClear:
			snap, err := table.ClearBets()
			stepErr = err
			if err == nil {
				builder.push(codec.TypeBetsCleared, codec.SnapshotPayload(snap))
			}
		case actionWorking:
			snap, err := table.SetWorking(action.working)
			stepErr = err
			if err == nil {
				builder.push(codec.TypeWorking, codec.SnapshotPayload(snap))
			}
		case actionRoll:
			roller.next = action.dice
			roll, err := table.RollDice()
			roller.next = nil
			if errors.Is(err, dice.ErrExhausted) {
				return nil, &ReplayError{
					StepIndex: int32(stepIdx),
					Reason:    "dice_exhausted",
					Message:   "no dice left for roll; add dice or an rng seed",
					Expected:  expectedState(before),
				}
			}
			stepErr = err
			if err == nil {
				builder.push(codec.TypeDiceThrown, codec.DiceThrownPayload(roll))
				res, err := table.ResolveRoll(roll.D1, roll.D2)
				if err != nil {
					return nil, &ReplayError{StepIndex: int32(stepIdx), Reason: "resolve_failed", Message: err.Error()}
				}
				builder.push(codec.TypeRollResult, codec.RollPayload(res))
				rolls++
			}
		}

		if rerr := checkExpectation(stepIdx, action, stepErr, before); rerr != nil {
			return nil, rerr
		}
		if stepErr != nil {
			builder.push(codec.TypeBetRejected, codec.ErrorPayload(stepErr))
		}
		if builder.err != nil {
			return nil, &ReplayError{StepIndex: int32(stepIdx), Reason: "encode_failed", Message: builder.err.Error()}
		}
	}

	final := table.Snapshot()
	return &ReplayTape{
		TapeVersion:   1,
		TableID:       builder.tableID,
		Events:        builder.events,
		Rolls:         rolls,
		FinalBankroll: final.Bankroll,
	}, nil
}

func checkExpectation(stepIdx int, action normalizedAction, stepErr error, before craps.Snapshot) *ReplayError {
	kind, isEngineErr := craps.KindOf(stepErr)
	switch {
	case stepErr == nil && action.expect != 0:
		return &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "expected_error_missing",
			Message:   fmt.Sprintf("%s step succeeded, expected %s", action.typ, action.expect),
			Expected:  expectedState(before),
		}
	case stepErr == nil:
		return nil
	case !isEngineErr:
		return &ReplayError{StepIndex: int32(stepIdx), Reason: "action_apply_failed", Message: stepErr.Error()}
	case action.expect == 0:
		return &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "action_rejected",
			Message:   stepErr.Error(),
			Expected:  expectedState(before),
		}
	case action.expect != kind:
		return &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "unexpected_error",
			Message:   fmt.Sprintf("expected %s, got %v", action.expect, stepErr),
			Expected:  expectedState(before),
		}
	}
	return nil
}

func expectedState(s craps.Snapshot) *ExpectedState {
	wagers := make(map[string]int64, len(s.Wagers))
	for k, v := range s.Wagers {
		wagers[k.String()] = v
	}
	return &ExpectedState{
		Point:    s.Point,
		Phase:    s.Phase.String(),
		Bankroll: s.Bankroll,
		Wagers:   wagers,
		Rolling:  s.Rolling,
	}
}

// tapeBuilder keeps the first encode failure; later pushes are dropped.
type tapeBuilder struct {
	tableID string
	seq     uint64
	events  []ReplayEvent
	err     error
}

func newTapeBuilder(tableID string) *tapeBuilder {
	return &tapeBuilder{
		tableID: tableID,
		events:  make([]ReplayEvent, 0, 64),
	}
}

func (b *tapeBuilder) push(typ string, payload map[string]any) error {
	if b.err != nil {
		return b.err
	}
	env := &codec.Envelope{
		TableID: b.tableID,
		Seq:     b.seq + 1,
		TsMs:    int64(b.seq + 1),
		Type:    typ,
		Payload: payload,
	}
	b64, err := codec.MarshalB64(*env)
	if err != nil {
		b.err = err
		return err
	}
	b.seq++
	b.events = append(b.events, ReplayEvent{
		Type:        typ,
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: b64,
	})
	return nil
}
