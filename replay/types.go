package replay

import "craps-lite/codec"

// ScenarioSpec scripts one training session: a table, an optional starting
// layout and the player's actions in order.
type ScenarioSpec struct {
	Variant string       `json:"variant"`
	Table   TableSpec    `json:"table"`
	Start   *StartSpec   `json:"start,omitempty"`
	Dice    []string     `json:"dice,omitempty"`
	Actions []ActionSpec `json:"actions"`
	RNG     *RNGSpec     `json:"rng,omitempty"`
}

type TableSpec struct {
	Min        int64   `json:"min"`
	Max        int64   `json:"max"`
	Bankroll   int64   `json:"bankroll"`
	Chips      []int64 `json:"chips,omitempty"`
	Settlement string  `json:"settlement,omitempty"`
	Working    bool    `json:"working,omitempty"`
}

// StartSpec is a mid-session layout, e.g. "point is 5, $10 pass with $20 odds".
type StartSpec struct {
	Point    int              `json:"point"`
	Bankroll int64            `json:"bankroll"`
	Bets     map[string]int64 `json:"bets,omitempty"`
	Dice     string           `json:"dice,omitempty"`
}

type ActionSpec struct {
	Type    string `json:"type"`
	Bet     string `json:"bet,omitempty"`
	To      string `json:"to,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Dice    string `json:"dice,omitempty"`
	Working bool   `json:"working,omitempty"`
	// error kind the step must fail with, e.g. "illegal_phase"
	ExpectError string `json:"expect_error,omitempty"`
}

type RNGSpec struct {
	Seed int64 `json:"seed"`
}

type ReplayTape struct {
	TapeVersion   int           `json:"tape_version"`
	TableID       string        `json:"table_id"`
	Events        []ReplayEvent `json:"events"`
	Rolls         int           `json:"rolls"`
	FinalBankroll int64         `json:"final_bankroll"`
}

type ReplayEvent struct {
	Type        string          `json:"type"`
	Seq         uint64          `json:"seq"`
	Value       *codec.Envelope `json:"value,omitempty"`
	EnvelopeB64 string          `json:"envelope_b64,omitempty"`
}

// WireReplayTape is the camelCase form handed to the browser.
type WireReplayTape struct {
	TapeVersion   int               `json:"tapeVersion"`
	TableID       string            `json:"tableId"`
	Rolls         int               `json:"rolls"`
	FinalBankroll int64             `json:"finalBankroll"`
	Events        []WireReplayEvent `json:"events"`
}

type WireReplayEvent struct {
	Type        string `json:"type"`
	Seq         uint64 `json:"seq"`
	EnvelopeB64 string `json:"envelopeB64"`
}

func ToWireReplayTape(tape *ReplayTape) *WireReplayTape {
	if tape == nil {
		return nil
	}
	events := make([]WireReplayEvent, len(tape.Events))
	for i, e := range tape.Events {
		events[i] = WireReplayEvent{Type: e.Type, Seq: e.Seq, EnvelopeB64: e.EnvelopeB64}
	}
	return &WireReplayTape{
		TapeVersion:   tape.TapeVersion,
		TableID:       tape.TableID,
		Rolls:         tape.Rolls,
		FinalBankroll: tape.FinalBankroll,
		Events:        events,
	}
}
