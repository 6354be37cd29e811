package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"craps-lite/codec"

	"github.com/rs/zerolog"
)

const (
	defaultLocalDBName = "craps-ledger.db"
	defaultListLimit   = 50
	maxListLimit       = 500
)

const (
	ModeNoop     = "noop"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

var ErrNotFound = errors.New("not found")

// Service persists the session event stream and one row per settled roll.
// Append* calls are fire-and-forget: failures are logged, not returned,
// so a slow store never stalls a session actor.
type Service interface {
	Close() error
	AppendEvent(sessionID string, env codec.Envelope)
	RecordRoll(ctx context.Context, rec RollRecord) error
	ListRolls(ctx context.Context, sessionID string, limit int) ([]RollRecord, error)
	GetSessionEvents(ctx context.Context, sessionID string) ([]EventItem, error)
}

// RollRecord is one settled throw as stored in the ledger.
type RollRecord struct {
	RollID      string    `json:"roll_id"`
	SessionID   string    `json:"session_id"`
	Seq         uint64    `json:"seq"`
	D1          int       `json:"d1"`
	D2          int       `json:"d2"`
	Total       int       `json:"total"`
	PointBefore int       `json:"point_before"`
	PointAfter  int       `json:"point_after"`
	Winnings    int64     `json:"winnings"`
	Bankroll    int64     `json:"bankroll"`
	Log         string    `json:"log"`
	Nonce       uint64    `json:"nonce,omitempty"`
	RolledAt    time.Time `json:"rolled_at"`
}

type EventItem struct {
	Seq         uint64 `json:"seq"`
	EventType   string `json:"event_type"`
	EnvelopeB64 string `json:"envelope_b64"`
	ServerTsMs  *int64 `json:"server_ts_ms,omitempty"`
}

type Options struct {
	Mode        string
	SQLitePath  string
	DatabaseURL string
}

type noopService struct{}

func (n *noopService) Close() error { return nil }

func (n *noopService) AppendEvent(_ string, _ codec.Envelope) {}

func (n *noopService) RecordRoll(_ context.Context, _ RollRecord) error { return nil }

func (n *noopService) ListRolls(_ context.Context, _ string, _ int) ([]RollRecord, error) {
	return []RollRecord{}, nil
}

func (n *noopService) GetSessionEvents(_ context.Context, _ string) ([]EventItem, error) {
	return nil, ErrNotFound
}

// NewService opens the ledger named by opts.Mode and returns it with the
// mode actually in use.
func NewService(opts Options, logger zerolog.Logger) (Service, string, error) {
	logger = logger.With().Str("component", "ledger").Logger()
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case ModeNoop, "memory", "":
		return &noopService{}, ModeNoop, nil
	case ModeSQLite, "local":
		path := strings.TrimSpace(opts.SQLitePath)
		if path == "" {
			p, err := defaultSQLitePath()
			if err != nil {
				return nil, "", fmt.Errorf("resolve sqlite path: %w", err)
			}
			path = p
		}
		service, err := NewSQLiteService(path, logger)
		if err != nil {
			return nil, "", err
		}
		return service, ModeSQLite, nil
	case ModePostgres:
		service, err := NewPostgresService(opts.DatabaseURL, logger)
		if err != nil {
			return nil, "", err
		}
		return service, ModePostgres, nil
	default:
		return nil, "", fmt.Errorf("unknown ledger mode %q", opts.Mode)
	}
}

func defaultSQLitePath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "craps-lite", defaultLocalDBName), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
