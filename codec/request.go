package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client request types
const (
	RequestCreate  = "create"
	RequestJoin    = "join"
	RequestPlace   = "place"
	RequestMove    = "move"
	RequestClear   = "clear"
	RequestRoll    = "roll"
	RequestWorking = "working"
	RequestHistory = "history"
)

// Request is one client message, encoded like Envelope. Bet keys use the
// layout names ("pass", "place6", "buy4").
type Request struct {
	Type      string
	SessionID string
	Bet       string
	From      string
	To        string
	Amount    int64
	Working   bool
	Limit     int64
}

func MarshalRequest(r Request) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"type":       r.Type,
		"session_id": r.SessionID,
		"bet":        r.Bet,
		"from":       r.From,
		"to":         r.To,
		"amount":     r.Amount,
		"working":    r.Working,
		"limit":      r.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return proto.Marshal(s)
}

func UnmarshalRequest(data []byte) (Request, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	m := s.AsMap()
	amount, err := wholeField(m, "amount")
	if err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	limit, err := wholeField(m, "limit")
	if err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	r := Request{
		Type:      stringField(m, "type"),
		SessionID: stringField(m, "session_id"),
		Bet:       stringField(m, "bet"),
		From:      stringField(m, "from"),
		To:        stringField(m, "to"),
		Amount:    amount,
		Working:   boolField(m, "working"),
		Limit:     limit,
	}
	switch r.Type {
	case RequestCreate, RequestJoin, RequestPlace, RequestMove, RequestClear, RequestRoll, RequestWorking, RequestHistory:
		return r, nil
	case "":
		return Request{}, fmt.Errorf("decode request: missing type")
	default:
		return Request{}, fmt.Errorf("decode request: unknown type %q", r.Type)
	}
}
