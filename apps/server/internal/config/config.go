package config

import (
	"fmt"
	"strings"
	"time"

	"craps-lite/craps"

	"github.com/caarlos0/env/v11"
)

const (
	DiceRandom = "random"
	DiceFair   = "fair"
)

// Config is the server configuration, read from CRAPS_* variables.
type Config struct {
	Addr     string `env:"CRAPS_ADDR"      envDefault:":8080"`
	LogLevel string `env:"CRAPS_LOG_LEVEL" envDefault:"info"`

	LedgerMode  string `env:"CRAPS_LEDGER_MODE"   envDefault:"sqlite"`
	LedgerPath  string `env:"CRAPS_LEDGER_PATH"`
	DatabaseURL string `env:"CRAPS_DATABASE_URL"`

	NATSURL     string `env:"CRAPS_NATS_URL"`
	NATSSubject string `env:"CRAPS_NATS_SUBJECT" envDefault:"craps.rolls"`

	MaxSessions int `env:"CRAPS_MAX_SESSIONS" envDefault:"256"`

	TableMinimum  int64         `env:"CRAPS_TABLE_MIN"      envDefault:"5"`
	TableMaximum  int64         `env:"CRAPS_TABLE_MAX"      envDefault:"1000"`
	Bankroll      int64         `env:"CRAPS_BANKROLL"       envDefault:"10000"`
	Chips         []int64       `env:"CRAPS_CHIPS"          envDefault:"1,5,25,100,500" envSeparator:","`
	Settlement    string        `env:"CRAPS_SETTLEMENT"     envDefault:"complete"`
	Working       bool          `env:"CRAPS_WORKING"`
	DiceMode      string        `env:"CRAPS_DICE"           envDefault:"random"`
	RollAnimation time.Duration `env:"CRAPS_ROLL_ANIMATION" envDefault:"1200ms"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxSessions <= 0 {
		return fmt.Errorf("CRAPS_MAX_SESSIONS must be > 0")
	}
	if c.RollAnimation < 0 {
		return fmt.Errorf("CRAPS_ROLL_ANIMATION must be >= 0")
	}
	switch strings.ToLower(c.DiceMode) {
	case DiceRandom, DiceFair:
	default:
		return fmt.Errorf("unknown dice mode %q", c.DiceMode)
	}
	if _, err := c.TableConfig(); err != nil {
		return err
	}
	return nil
}

// TableConfig is the engine configuration new sessions start from.
func (c Config) TableConfig() (craps.Config, error) {
	mode, err := craps.ParseSettlementMode(strings.ToLower(strings.TrimSpace(c.Settlement)))
	if err != nil {
		return craps.Config{}, err
	}
	cfg := craps.Config{
		TableMinimum:      c.TableMinimum,
		TableMaximum:      c.TableMaximum,
		StartingBankroll:  c.Bankroll,
		ChipDenominations: append([]int64(nil), c.Chips...),
		Settlement:        mode,
		Working:           c.Working,
	}
	if _, err := craps.NewTable(cfg); err != nil {
		return craps.Config{}, fmt.Errorf("table defaults: %w", err)
	}
	return cfg, nil
}
