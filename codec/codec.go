package codec

import (
	"encoding/base64"
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server envelope types
const (
	TypeSnapshot    = "snapshot"
	TypeBetPlaced   = "betPlaced"
	TypeBetMoved    = "betMoved"
	TypeBetsCleared = "betsCleared"
	TypeBetRejected = "betRejected"
	TypeWorking     = "working"
	TypeDiceThrown  = "diceThrown"
	TypeRollResult  = "rollResult"
	TypeHistory     = "history"
	TypeClosed      = "closed"
	TypeError       = "error"
)

// Envelope is one server message. On the wire it is a
// google.protobuf.Struct in protobuf binary encoding.
type Envelope struct {
	TableID string         `json:"table_id"`
	Seq     uint64         `json:"seq"`
	TsMs    int64          `json:"ts_ms"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func Marshal(env Envelope) ([]byte, error) {
	payload := env.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		"table_id": env.TableID,
		"seq":      env.Seq,
		"ts_ms":    env.TsMs,
		"type":     env.Type,
		"payload":  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("build envelope %s: %w", env.Type, err)
	}
	return proto.Marshal(s)
}

func Unmarshal(data []byte) (Envelope, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	m := s.AsMap()
	env := Envelope{
		TableID: stringField(m, "table_id"),
		Seq:     uint64(intField(m, "seq")),
		TsMs:    intField(m, "ts_ms"),
		Type:    stringField(m, "type"),
	}
	if p, ok := m["payload"].(map[string]any); ok {
		env.Payload = p
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// MarshalB64 is Marshal followed by standard base64, the form stored in
// replay tapes and the roll ledger.
func MarshalB64(env Envelope) (string, error) {
	b, err := Marshal(env)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func UnmarshalB64(s string) (Envelope, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return Unmarshal(b)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Struct numbers decode as float64.
func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// wholeField is intField for client input: a fractional or out-of-range
// number is an error rather than truncated.
func wholeField(m map[string]any, key string) (int64, error) {
	v, ok := m[key].(float64)
	if !ok {
		return intField(m, key), nil
	}
	if v != math.Trunc(v) || math.Abs(v) > maxExactInt {
		return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
	}
	return int64(v), nil
}

// Largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
