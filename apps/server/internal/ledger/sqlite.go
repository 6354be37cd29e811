package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"craps-lite/codec"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

type SQLiteService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSQLiteService(dbPath string, logger zerolog.Logger) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		dbPath = filepath.Clean(dbPath)
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().Str("path", dbPath).Msg("sqlite ledger ready")
	return &SQLiteService{db: db, logger: logger}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) AppendEvent(sessionID string, env codec.Envelope) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	payloadB64, err := codec.MarshalB64(env)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("marshal event failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO session_event_stream (
    session_id, seq, event_type, envelope_b64, server_ts_ms, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, seq) DO NOTHING
`, sessionID, int64(env.Seq), env.Type, payloadB64, nullableInt64(env.TsMs), time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Uint64("seq", env.Seq).Msg("append event failed")
	}
}

func (s *SQLiteService) RecordRoll(ctx context.Context, rec RollRecord) error {
	if strings.TrimSpace(rec.SessionID) == "" {
		return fmt.Errorf("record roll: empty session id")
	}
	if rec.RolledAt.IsZero() {
		rec.RolledAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session_rolls (
    roll_id, session_id, seq, d1, d2, total, point_before, point_after,
    winnings, bankroll, log, nonce, rolled_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, seq) DO NOTHING
`,
		rec.RollID, rec.SessionID, int64(rec.Seq), rec.D1, rec.D2, rec.Total,
		rec.PointBefore, rec.PointAfter, rec.Winnings, rec.Bankroll, rec.Log,
		int64(rec.Nonce), rec.RolledAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record roll %s#%d: %w", rec.SessionID, rec.Seq, err)
	}
	return nil
}

// ListRolls returns the newest rolls of a session, newest first.
func (s *SQLiteService) ListRolls(ctx context.Context, sessionID string, limit int) ([]RollRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT roll_id, session_id, seq, d1, d2, total, point_before, point_after,
       winnings, bankroll, log, nonce, rolled_at_ms
FROM session_rolls
WHERE session_id = ?
ORDER BY seq DESC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]RollRecord, 0, limit)
	for rows.Next() {
		var rec RollRecord
		var seq, nonce, rolledAtMs int64
		if err := rows.Scan(
			&rec.RollID, &rec.SessionID, &seq, &rec.D1, &rec.D2, &rec.Total,
			&rec.PointBefore, &rec.PointAfter, &rec.Winnings, &rec.Bankroll,
			&rec.Log, &nonce, &rolledAtMs,
		); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Nonce = uint64(nonce)
		rec.RolledAt = time.UnixMilli(rolledAtMs).UTC()
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (s *SQLiteService) GetSessionEvents(ctx context.Context, sessionID string) ([]EventItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, event_type, envelope_b64, server_ts_ms
FROM session_event_stream
WHERE session_id = ?
ORDER BY seq ASC
`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]EventItem, 0, 64)
	for rows.Next() {
		var item EventItem
		var seq int64
		var ts sql.NullInt64
		if err := rows.Scan(&seq, &item.EventType, &item.EnvelopeB64, &ts); err != nil {
			return nil, err
		}
		item.Seq = uint64(seq)
		if ts.Valid {
			v := ts.Int64
			item.ServerTsMs = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items, nil
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS session_event_stream (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    envelope_b64 TEXT NOT NULL DEFAULT '',
    server_ts_ms INTEGER,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (session_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_session_event_stream_created_at ON session_event_stream(created_at_ms)`,
		`
CREATE TABLE IF NOT EXISTS session_rolls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    roll_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    d1 INTEGER NOT NULL,
    d2 INTEGER NOT NULL,
    total INTEGER NOT NULL,
    point_before INTEGER NOT NULL,
    point_after INTEGER NOT NULL,
    winnings INTEGER NOT NULL,
    bankroll INTEGER NOT NULL,
    log TEXT NOT NULL DEFAULT '',
    nonce INTEGER NOT NULL DEFAULT 0,
    rolled_at_ms INTEGER NOT NULL,
    UNIQUE (session_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_session_rolls_recent ON session_rolls(session_id, seq DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
