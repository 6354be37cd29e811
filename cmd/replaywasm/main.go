//go:build js && wasm

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"syscall/js"

	"craps-lite/dice"
	"craps-lite/replay"
)

type initRequest struct {
	Spec replay.ScenarioSpec `json:"spec"`
}

type initResponse struct {
	OK    bool                   `json:"ok"`
	Tape  *replay.WireReplayTape `json:"tape,omitempty"`
	Error *replay.ReplayError    `json:"error,omitempty"`
}

type verifyRequest struct {
	ServerSeedHex string `json:"serverSeed"`
	ClientSeed    string `json:"clientSeed"`
	Nonce         uint64 `json:"nonce"`
	Dice          string `json:"dice"`
}

type verifyResponse struct {
	OK    bool   `json:"ok"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func main() {
	export("__crapsReplay", func(raw string) any { return handleInit(raw) })
	export("__crapsVerifyRoll", func(raw string) any { return handleVerify(raw) })

	select {}
}

// export registers fn as a global taking one JSON string and returning one.
func export(name string, fn func(raw string) any) {
	js.Global().Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 || args[0].Type() != js.TypeString {
			return encode(map[string]any{"ok": false, "error": "missing request payload"})
		}
		return encode(fn(args[0].String()))
	}))
}

func handleInit(raw string) initResponse {
	var req initRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "invalid_json", Message: err.Error()},
		}
	}

	tape, err := replay.GenerateReplayTape(req.Spec)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) {
			return initResponse{OK: false, Error: replayErr}
		}
		return initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "replay_generation_failed", Message: err.Error()},
		}
	}
	return initResponse{OK: true, Tape: replay.ToWireReplayTape(tape)}
}

// handleVerify checks a provably fair throw once the server seed is revealed.
func handleVerify(raw string) verifyResponse {
	var req verifyRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return verifyResponse{Error: err.Error()}
	}
	seed, err := hex.DecodeString(req.ServerSeedHex)
	if err != nil {
		return verifyResponse{Error: "serverSeed must be hex"}
	}
	roll, err := dice.Parse(req.Dice)
	if err != nil {
		return verifyResponse{Error: err.Error()}
	}
	valid, err := dice.Verify(seed, req.ClientSeed, req.Nonce, roll)
	if err != nil {
		return verifyResponse{Error: err.Error()}
	}
	return verifyResponse{OK: true, Valid: valid}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"ok": false, "error": "encode response: " + err.Error()})
	}
	return string(b)
}
