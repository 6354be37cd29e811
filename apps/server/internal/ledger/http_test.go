package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMux(t *testing.T) (*http.ServeMux, *SQLiteService) {
	t.Helper()
	s := newTestSQLite(t)
	mux := http.NewServeMux()
	NewHTTPHandler(s).RegisterRoutes(mux)
	return mux, s
}

func TestHTTPListRolls(t *testing.T) {
	mux, s := newTestMux(t)
	if err := s.RecordRoll(context.Background(), RollRecord{RollID: "r1", SessionID: "abc", Seq: 1, D1: 2, D2: 5, Total: 7}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/abc/rolls?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		SessionID string       `json:"session_id"`
		Items     []RollRecord `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID != "abc" || len(body.Items) != 1 || body.Items[0].Total != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHTTPSessionRoutes(t *testing.T) {
	mux, _ := newTestMux(t)
	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/sessions/abc/events", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/abc/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/abc", http.StatusNotFound},
		{http.MethodPost, "/api/sessions/abc/rolls", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/replay", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rec.Code)
		}
	}
}

func TestHTTPReplay(t *testing.T) {
	mux, _ := newTestMux(t)
	spec := `{
  "variant": "craps",
  "table": {"min": 5, "max": 1000, "bankroll": 1000},
  "dice": ["3-4"],
  "actions": [
    {"type": "place", "bet": "pass", "amount": 10},
    {"type": "roll"}
  ]
}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay", bytes.NewBufferString(spec)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tape struct {
		Rolls         int   `json:"rolls"`
		FinalBankroll int64 `json:"finalBankroll"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tape); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tape.Rolls != 1 || tape.FinalBankroll != 1010 {
		t.Fatalf("unexpected tape: %+v", tape)
	}

	bad := `{"variant": "craps", "table": {"min": 5, "max": 1000, "bankroll": 1000}, "actions": [{"type": "roll"}]}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay", bytes.NewBufferString(bad)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}
