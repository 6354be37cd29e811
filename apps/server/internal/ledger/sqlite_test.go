package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"craps-lite/codec"

	"github.com/rs/zerolog"
)

func newTestSQLite(t *testing.T) *SQLiteService {
	t.Helper()
	s, err := NewSQLiteService(filepath.Join(t.TempDir(), "ledger", "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite ledger: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRecordAndListRolls(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		err := s.RecordRoll(ctx, RollRecord{
			RollID:      fmt.Sprintf("roll-%d", i),
			SessionID:   "s1",
			Seq:         uint64(i),
			D1:          i,
			D2:          3,
			Total:       i + 3,
			PointBefore: 0,
			PointAfter:  i + 3,
			Bankroll:    1000 - int64(i),
			Log:         "Rolled.",
			RolledAt:    base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("record roll %d: %v", i, err)
		}
	}
	if err := s.RecordRoll(ctx, RollRecord{RollID: "other", SessionID: "s2", Seq: 1, D1: 1, D2: 1, Total: 2}); err != nil {
		t.Fatalf("record other session: %v", err)
	}

	rolls, err := s.ListRolls(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(rolls) != 2 {
		t.Fatalf("expected 2 rolls, got %d", len(rolls))
	}
	if rolls[0].Seq != 3 || rolls[1].Seq != 2 {
		t.Fatalf("expected newest first, got seq %d,%d", rolls[0].Seq, rolls[1].Seq)
	}
	if rolls[0].Total != 6 || rolls[0].Bankroll != 997 {
		t.Fatalf("unexpected row: %+v", rolls[0])
	}
	if !rolls[0].RolledAt.Equal(base.Add(3 * time.Second)) {
		t.Fatalf("rolled_at mismatch: %v", rolls[0].RolledAt)
	}
}

func TestSQLiteRecordRollIgnoresDuplicateSeq(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	rec := RollRecord{RollID: "a", SessionID: "s1", Seq: 1, D1: 3, D2: 4, Total: 7, Bankroll: 100}
	if err := s.RecordRoll(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.Bankroll = 200
	if err := s.RecordRoll(ctx, rec); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}
	rolls, err := s.ListRolls(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rolls) != 1 || rolls[0].Bankroll != 100 {
		t.Fatalf("expected the first row to win, got %+v", rolls)
	}
}

func TestSQLiteSessionEvents(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if _, err := s.GetSessionEvents(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.AppendEvent("s1", codec.Envelope{TableID: "s1", Seq: 2, TsMs: 20, Type: codec.TypeDiceThrown})
	s.AppendEvent("s1", codec.Envelope{TableID: "s1", Seq: 1, TsMs: 10, Type: codec.TypeSnapshot})
	s.AppendEvent("s1", codec.Envelope{TableID: "s1", Seq: 1, TsMs: 99, Type: codec.TypeError})

	events, err := s.GetSessionEvents(ctx, "s1")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Seq != 1 || events[0].EventType != codec.TypeSnapshot {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	env, err := codec.UnmarshalB64(events[1].EnvelopeB64)
	if err != nil {
		t.Fatalf("decode stored envelope: %v", err)
	}
	if env.Type != codec.TypeDiceThrown || env.Seq != 2 {
		t.Fatalf("unexpected stored envelope: %+v", env)
	}
	if events[1].ServerTsMs == nil || *events[1].ServerTsMs != 20 {
		t.Fatalf("expected server ts 20, got %v", events[1].ServerTsMs)
	}
}

func TestNewServiceModes(t *testing.T) {
	svc, mode, err := NewService(Options{Mode: "noop"}, zerolog.Nop())
	if err != nil || mode != ModeNoop {
		t.Fatalf("noop: mode=%s err=%v", mode, err)
	}
	_ = svc.Close()

	svc, mode, err = NewService(Options{Mode: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")}, zerolog.Nop())
	if err != nil || mode != ModeSQLite {
		t.Fatalf("sqlite: mode=%s err=%v", mode, err)
	}
	_ = svc.Close()

	if _, _, err := NewService(Options{Mode: "redis"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}
