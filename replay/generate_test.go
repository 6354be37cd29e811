package replay

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"craps-lite/codec"
)

func TestGenerateReplayTape_IsDeterministic(t *testing.T) {
	spec := baseScenarioSpec()

	tapeA, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape A failed: %v", err)
	}
	tapeB, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape B failed: %v", err)
	}

	if !reflect.DeepEqual(tapeA, tapeB) {
		t.Fatalf("expected deterministic replay tape for the same ScenarioSpec")
	}
	if len(tapeA.Events) == 0 {
		t.Fatalf("expected non-empty replay tape")
	}

	counts := map[string]int{}
	for _, e := range tapeA.Events {
		counts[e.Type]++
	}
	if counts[codec.TypeSnapshot] != 1 || counts[codec.TypeRollResult] != 3 || counts[codec.TypeDiceThrown] != 3 {
		t.Fatalf("unexpected event mix %v", counts)
	}
	if counts[codec.TypeBetRejected] != 1 {
		t.Fatalf("expected the scripted rejection on the tape, got %v", counts)
	}
	// pass 10 wins 10 on the made point, odds 20 win 30 at 3:2
	if tapeA.FinalBankroll != 1000+10+30 {
		t.Fatalf("unexpected final bankroll %d", tapeA.FinalBankroll)
	}
	if tapeA.Rolls != 3 {
		t.Fatalf("expected 3 rolls, got %d", tapeA.Rolls)
	}
}

func TestGenerateReplayTape_EnvelopesDecode(t *testing.T) {
	tape, err := GenerateReplayTape(baseScenarioSpec())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range tape.Events {
		env, err := codec.UnmarshalB64(e.EnvelopeB64)
		if err != nil {
			t.Fatalf("event %d: %v", e.Seq, err)
		}
		if env.Type != e.Type || env.Seq != e.Seq || env.TableID != defaultTableID {
			t.Fatalf("event %d header mismatch: %+v", e.Seq, env)
		}
	}
	wire := ToWireReplayTape(tape)
	if len(wire.Events) != len(tape.Events) || wire.FinalBankroll != tape.FinalBankroll {
		t.Fatalf("wire tape mismatch")
	}
	if _, err := json.Marshal(wire); err != nil {
		t.Fatalf("wire tape must marshal: %v", err)
	}
}

func TestGenerateReplayTape_ReturnsReplayErrorOnRejectedAction(t *testing.T) {
	spec := baseScenarioSpec()
	spec.Actions[0] = ActionSpec{Type: "place", Bet: "come", Amount: 10}

	_, err := GenerateReplayTape(spec)
	if err == nil {
		t.Fatalf("expected replay generation to fail on a come bet with the point off")
	}
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "action_rejected" || replayErr.StepIndex != 0 {
		t.Fatalf("unexpected replay error %+v", replayErr)
	}
	if replayErr.Expected == nil || replayErr.Expected.Phase != "comeout" {
		t.Fatalf("expected replay error to include table state, got %+v", replayErr.Expected)
	}
}

func TestGenerateReplayTape_ExpectedErrorMustHappen(t *testing.T) {
	spec := baseScenarioSpec()
	spec.Actions[0].ExpectError = "insufficient_funds"

	_, err := GenerateReplayTape(spec)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) || replayErr.Reason != "expected_error_missing" {
		t.Fatalf("expected expected_error_missing, got %v", err)
	}
}

func TestGenerateReplayTape_DiceExhausted(t *testing.T) {
	spec := baseScenarioSpec()
	spec.Dice = spec.Dice[:1]

	_, err := GenerateReplayTape(spec)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) || replayErr.Reason != "dice_exhausted" {
		t.Fatalf("expected dice_exhausted, got %v", err)
	}
}

func TestGenerateReplayTape_StartLayoutAndSeed(t *testing.T) {
	spec := ScenarioSpec{
		Table: TableSpec{Min: 5, Max: 1000, Bankroll: 1000, Settlement: "legacy"},
		Start: &StartSpec{Point: 5, Bankroll: 970, Bets: map[string]int64{"pass": 10, "passOdds": 20}},
		Actions: []ActionSpec{
			{Type: "roll", Dice: "2-3"},
			{Type: "roll", ExpectError: "no_line_bet"},
			{Type: "place", Bet: "pass", Amount: 10},
			{Type: "roll"},
		},
		RNG: &RNGSpec{Seed: 42},
	}
	tape, err := GenerateReplayTape(spec)
	if err != nil {
		t.Fatalf("GenerateReplayTape failed: %v", err)
	}
	// legacy: pass paid, odds forfeited
	first := tape.Events[2]
	if first.Type != codec.TypeRollResult {
		t.Fatalf("expected roll result, got %s", first.Type)
	}
	if w := first.Value.Payload["winnings"]; w != int64(20) {
		t.Fatalf("expected winnings 20, got %v", w)
	}
}

func TestGenerateReplayTape_RejectsBadSpec(t *testing.T) {
	cases := map[string]func(*ScenarioSpec){
		"invalid_variant":    func(s *ScenarioSpec) { s.Variant = "NLH" },
		"invalid_limits":     func(s *ScenarioSpec) { s.Table.Max = 1 },
		"invalid_settlement": func(s *ScenarioSpec) { s.Table.Settlement = "house" },
		"invalid_dice":       func(s *ScenarioSpec) { s.Dice = []string{"9-9"} },
		"invalid_action":     func(s *ScenarioSpec) { s.Actions[1].Bet = "place7" },
		"invalid_actions":    func(s *ScenarioSpec) { s.Actions = nil },
	}
	for reason, mutate := range cases {
		spec := baseScenarioSpec()
		mutate(&spec)
		_, err := GenerateReplayTape(spec)
		var replayErr *ReplayError
		if !errors.As(err, &replayErr) || replayErr.Reason != reason {
			t.Fatalf("%s: got %v", reason, err)
		}
	}
}

func baseScenarioSpec() ScenarioSpec {
	return ScenarioSpec{
		Variant: "craps",
		Table: TableSpec{
			Min:      5,
			Max:      1000,
			Bankroll: 1000,
			Chips:    []int64{1, 5, 10, 20, 25, 100},
		},
		Dice: []string{"4-5", "2-2", "6-3"},
		Actions: []ActionSpec{
			{Type: "place", Bet: "pass", Amount: 10},
			{Type: "place", Bet: "come", Amount: 10, ExpectError: "illegal_phase"},
			{Type: "roll"},
			{Type: "place", Bet: "passOdds", Amount: 20},
			{Type: "place", Bet: "place6", Amount: 5},
			{Type: "move", Bet: "place6", To: "place8"},
			{Type: "roll"},
			{Type: "roll"},
			{Type: "clear"},
		},
	}
}

func TestTapeBuilder_StopsAtFirstEncodeFailure(t *testing.T) {
	b := newTapeBuilder("t1")
	if err := b.push(codec.TypeSnapshot, map[string]any{"point": 0}); err != nil {
		t.Fatalf("push err: %v", err)
	}
	if err := b.push(codec.TypeBetPlaced, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatalf("expected encode error")
	}
	if err := b.push(codec.TypeWorking, map[string]any{"working": true}); err == nil {
		t.Fatalf("push after a failure must keep failing")
	}
	if len(b.events) != 1 || b.seq != 1 || b.events[0].EnvelopeB64 == "" {
		t.Fatalf("failed pushes must not reach the tape: seq=%d events=%+v", b.seq, b.events)
	}
}
