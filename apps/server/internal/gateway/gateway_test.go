package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"craps-lite/apps/server/internal/lobby"
	"craps-lite/codec"
	"craps-lite/craps"
	"craps-lite/dice"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func dialTestServer(t *testing.T, rolls ...dice.Roll) *websocket.Conn {
	t.Helper()
	cfg := craps.DefaultConfig()
	cfg.Roller = dice.NewScriptedRoller(rolls...)
	lby, err := lobby.New(lobby.Options{MaxSessions: 4, Defaults: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("lobby: %v", err)
	}
	t.Cleanup(lby.Close)

	gw := New(lby, zerolog.Nop())
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, req codec.Request) {
	t.Helper()
	data, err := codec.MarshalRequest(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func next(t *testing.T, conn *websocket.Conn) codec.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got %d", typ)
	}
	env, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func expect(t *testing.T, conn *websocket.Conn, typ string) codec.Envelope {
	t.Helper()
	env := next(t, conn)
	if env.Type != typ {
		t.Fatalf("expected %s, got %s %v", typ, env.Type, env.Payload)
	}
	return env
}

func TestSessionOverWebSocket(t *testing.T) {
	conn := dialTestServer(t, dice.Roll{D1: 4, D2: 3})

	send(t, conn, codec.Request{Type: codec.RequestCreate})
	snap := expect(t, conn, codec.TypeSnapshot)
	if snap.TableID == "" || snap.Payload["session_id"] != snap.TableID {
		t.Fatalf("snapshot missing session id: %+v", snap)
	}

	send(t, conn, codec.Request{Type: codec.RequestPlace, Bet: "pass", Amount: 25})
	placed := expect(t, conn, codec.TypeBetPlaced)
	if placed.Payload["bankroll"] != float64(9975) {
		t.Fatalf("unexpected placement %v", placed.Payload)
	}

	send(t, conn, codec.Request{Type: codec.RequestRoll})
	thrown := expect(t, conn, codec.TypeDiceThrown)
	if thrown.Payload["total"] != float64(7) {
		t.Fatalf("unexpected throw %v", thrown.Payload)
	}
	result := expect(t, conn, codec.TypeRollResult)
	if result.Payload["bankroll"] != float64(10025) || result.Payload["winnings"] != float64(50) {
		t.Fatalf("unexpected result %v", result.Payload)
	}
	if result.Seq <= thrown.Seq {
		t.Fatalf("sequence must increase: thrown=%d result=%d", thrown.Seq, result.Seq)
	}

	send(t, conn, codec.Request{Type: codec.RequestHistory, Limit: 5})
	hist := expect(t, conn, codec.TypeHistory)
	if lines, _ := hist.Payload["lines"].([]any); len(lines) != 1 || lines[0] != "Rolled 7." {
		t.Fatalf("unexpected history %v", hist.Payload)
	}
}

func TestErrorsComeBackAsEnvelopes(t *testing.T) {
	conn := dialTestServer(t)

	send(t, conn, codec.Request{Type: codec.RequestRoll})
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != "no_session" {
		t.Fatalf("expected no_session, got %v", env.Payload)
	}

	send(t, conn, codec.Request{Type: codec.RequestJoin, SessionID: "missing"})
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != "not_found" {
		t.Fatalf("expected not_found, got %v", env.Payload)
	}

	send(t, conn, codec.Request{Type: codec.RequestCreate})
	expect(t, conn, codec.TypeSnapshot)

	send(t, conn, codec.Request{Type: codec.RequestPlace, Bet: "place7", Amount: 5})
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != craps.KindInvalidBet.String() {
		t.Fatalf("expected invalid bet, got %v", env.Payload)
	}

	send(t, conn, codec.Request{Type: codec.RequestRoll})
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != craps.KindNoLineBet.String() {
		t.Fatalf("expected no line bet, got %v", env.Payload)
	}

	st, err := structpb.NewStruct(map[string]any{"type": codec.RequestPlace, "bet": "pass", "amount": 5.5})
	if err != nil {
		t.Fatal(err)
	}
	frame, err := proto.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != "bad_request" {
		t.Fatalf("expected bad_request for a fractional amount, got %v", env.Payload)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0xff, 0x00}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := expect(t, conn, codec.TypeError); env.Payload["code"] != "bad_request" {
		t.Fatalf("expected bad_request, got %v", env.Payload)
	}
}
