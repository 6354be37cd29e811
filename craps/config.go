package craps

import (
	"fmt"

	"craps-lite/dice"
)

// SettlementMode selects the roll resolution rules.
type SettlementMode byte

const (
	// SettlementComplete settles every wager on the layout at standard odds.
	SettlementComplete SettlementMode = 0
	// SettlementLegacy settles only field, pass and don't pass. Pass odds
	// are taken down unpaid when the point is made.
	SettlementLegacy SettlementMode = 1
)

var SettlementModeDictionary = map[SettlementMode]string{
	SettlementComplete: "complete",
	SettlementLegacy:   "legacy",
}

func (m SettlementMode) String() string {
	if s, ok := SettlementModeDictionary[m]; ok {
		return s
	}
	return "unknown"
}

func ParseSettlementMode(s string) (SettlementMode, error) {
	for m, name := range SettlementModeDictionary {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown settlement mode %q", s)
}

// Buy 4 and Buy 10 need at least this much on the number.
const buyFourTenMinimum int64 = 20

type Config struct {
	// Limits
	TableMinimum int64
	TableMaximum int64

	StartingBankroll int64

	// Accepted wager amounts (empty accepts any positive amount)
	ChipDenominations []int64

	Settlement SettlementMode

	// Place, buy, hardway and come odds wagers act on come-out rolls
	Working bool

	// RNG seed (0 => time-based); unused when Roller is set
	Seed   int64
	Roller dice.Roller
}

// DefaultConfig is the practice table: $5-$1000 with a $10,000 bankroll.
func DefaultConfig() Config {
	return Config{
		TableMinimum:      5,
		TableMaximum:      1000,
		StartingBankroll:  10000,
		ChipDenominations: []int64{1, 5, 25, 100, 500},
	}
}

func (c Config) validate() error {
	if c.TableMinimum <= 0 {
		return fmt.Errorf("TableMinimum must be > 0")
	}
	if c.TableMaximum < c.TableMinimum {
		return fmt.Errorf("TableMaximum must be >= TableMinimum")
	}
	if c.StartingBankroll < 0 {
		return fmt.Errorf("StartingBankroll must be >= 0")
	}
	for _, chip := range c.ChipDenominations {
		if chip <= 0 {
			return fmt.Errorf("invalid chip denomination %d", chip)
		}
	}
	if _, ok := SettlementModeDictionary[c.Settlement]; !ok {
		return fmt.Errorf("invalid settlement mode %d", c.Settlement)
	}
	return nil
}
