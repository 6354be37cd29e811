package craps

import (
	"fmt"
	"sync"

	"craps-lite/dice"
)

// Table is one player's craps session: puck, bankroll and wagers.
// All methods are safe for concurrent use.
type Table struct {
	cfg    Config
	roller dice.Roller

	mu sync.Mutex

	point    int
	bankroll int64
	wagers   map[BetKind]int64
	working  bool

	lastRoll dice.Roll
	rolling  bool
	pending  dice.Roll

	// session ledger, for the conservation check
	commissionPaid int64
	totalWon       int64
	totalLost      int64
	rollCount      uint64
}

func NewTable(cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewSeededRoller(cfg.Seed)
	}
	return &Table{
		cfg:      cfg,
		roller:   roller,
		bankroll: cfg.StartingBankroll,
		wagers:   make(map[BetKind]int64, 8),
		working:  cfg.Working,
	}, nil
}

// Config returns the table configuration, including limits loaded by Restore.
func (t *Table) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	cfg := t.cfg
	cfg.ChipDenominations = append([]int64(nil), t.cfg.ChipDenominations...)
	return cfg
}

// SetWorking turns place, buy, hardway and come odds wagers on or off for
// come-out rolls.
func (t *Table) SetWorking(on bool) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rolling {
		return t.snapshotLocked(), newError(KindRollInProgress, "cannot toggle working while dice are rolling")
	}
	t.working = on
	return t.snapshotLocked(), nil
}

// Restore replaces the table state with s, e.g. to set up a training
// scenario. Limits come from s; the ledger restarts at s.Bankroll plus
// everything on the layout.
func (t *Table) Restore(s Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rolling {
		return newError(KindRollInProgress, "cannot restore while dice are rolling")
	}
	if s.Point != PointOff && !IsBoxNumber(s.Point) {
		return ErrInvalidState(fmt.Sprintf("point %d is not a box number", s.Point))
	}
	if s.Bankroll < 0 {
		return ErrInvalidState("bankroll must be >= 0")
	}
	if s.TableMinimum <= 0 || s.TableMaximum < s.TableMinimum {
		return ErrInvalidState(fmt.Sprintf("invalid limits %d-%d", s.TableMinimum, s.TableMaximum))
	}
	if (s.Dice != dice.Roll{}) && !s.Dice.Valid() {
		return ErrInvalidState(fmt.Sprintf("invalid dice %v", s.Dice))
	}
	var staked int64
	wagers := make(map[BetKind]int64, len(s.Wagers))
	for k, amt := range s.Wagers {
		if !k.Valid() {
			return ErrInvalidState(fmt.Sprintf("invalid wager kind %s", k))
		}
		if amt <= 0 {
			return ErrInvalidState(fmt.Sprintf("wager %s must be > 0", k))
		}
		wagers[k] = amt
		staked += amt
	}

	t.cfg.TableMinimum = s.TableMinimum
	t.cfg.TableMaximum = s.TableMaximum
	t.cfg.StartingBankroll = s.Bankroll + staked
	t.point = s.Point
	t.bankroll = s.Bankroll
	t.wagers = wagers
	t.working = s.Working
	t.lastRoll = s.Dice
	t.commissionPaid = 0
	t.totalWon = 0
	t.totalLost = 0
	t.rollCount = 0
	return nil
}

// CheckInvariants verifies the bankroll ledger and wager map.
func (t *Table) CheckInvariants() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkInvariantsLocked()
}

func (t *Table) checkInvariantsLocked() error {
	if t.bankroll < 0 {
		return ErrInvalidState(fmt.Sprintf("negative bankroll %d", t.bankroll))
	}
	if t.point != PointOff && !IsBoxNumber(t.point) {
		return ErrInvalidState(fmt.Sprintf("point %d is not a box number", t.point))
	}
	var staked int64
	for k, amt := range t.wagers {
		if amt <= 0 {
			return ErrInvalidState(fmt.Sprintf("wager %s has non-positive amount %d", k, amt))
		}
		staked += amt
	}
	want := t.cfg.StartingBankroll - t.commissionPaid + t.totalWon - t.totalLost
	if got := t.bankroll + staked; got != want {
		return ErrInvalidState(fmt.Sprintf("ledger mismatch: bankroll+wagers=%d expected %d", got, want))
	}
	return nil
}

func (t *Table) totalStakedLocked() int64 {
	var sum int64
	for _, amt := range t.wagers {
		sum += amt
	}
	return sum
}
