package craps

import (
	"fmt"

	"craps-lite/dice"
)

// RollDice checks the come-out line bet rules, draws the next throw and
// locks the layout until ResolveRoll settles it.
func (t *Table) RollDice() (dice.Roll, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkRollLocked(); err != nil {
		return dice.Roll{}, err
	}
	roll, err := t.roller.Next()
	if err != nil {
		return dice.Roll{}, fmt.Errorf("draw dice: %w", err)
	}
	if !roll.Valid() {
		return dice.Roll{}, newError(KindInvalidDice, "roller produced %v", roll)
	}
	t.rolling = true
	t.pending = roll
	return roll, nil
}

// Roll draws and settles a throw in one step.
func (t *Table) Roll() (*RollResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkRollLocked(); err != nil {
		return nil, err
	}
	roll, err := t.roller.Next()
	if err != nil {
		return nil, fmt.Errorf("draw dice: %w", err)
	}
	if !roll.Valid() {
		return nil, newError(KindInvalidDice, "roller produced %v", roll)
	}
	return t.resolveLocked(roll), nil
}

// Rolling reports whether a drawn throw is waiting for ResolveRoll.
func (t *Table) Rolling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolling
}

func (t *Table) checkRollLocked() error {
	if t.rolling {
		return newError(KindRollInProgress, "dice are already rolling")
	}
	if t.point != PointOff {
		return nil
	}
	pass, dontPass := t.wagers[Pass], t.wagers[DontPass]
	if pass <= 0 && dontPass <= 0 {
		return newError(KindNoLineBet, "place a pass or don't pass bet to roll")
	}
	if pass > 0 && pass < t.cfg.TableMinimum {
		return newError(KindBelowTableMinimum, "pass bet %d is below the %d table minimum", pass, t.cfg.TableMinimum)
	}
	return nil
}

// ResolveRoll settles a throw. While a drawn throw is pending the dice must
// match it; otherwise any valid dice may be injected.
func (t *Table) ResolveRoll(d1, d2 int) (*RollResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	roll := dice.Roll{D1: d1, D2: d2}
	if !roll.Valid() {
		return nil, newError(KindInvalidDice, "dice must be 1..6, got %v", roll)
	}
	if t.rolling && roll != t.pending {
		return nil, newError(KindInvalidDice, "drawn dice are %v, got %v", t.pending, roll)
	}
	return t.resolveLocked(roll), nil
}

func (t *Table) resolveLocked(roll dice.Roll) *RollResult {
	pointBefore := t.point
	s := newSettler(t, roll)
	if t.cfg.Settlement == SettlementLegacy {
		s.settleLegacy()
	} else {
		s.settleComplete()
	}
	profit := s.profit60 / payoutUnit
	winnings := s.returned + profit

	t.bankroll += winnings
	t.totalWon += profit
	t.totalLost += s.lost
	t.lastRoll = roll
	t.rolling = false
	t.pending = dice.Roll{}
	t.rollCount++

	return &RollResult{
		Dice:        roll,
		Total:       roll.Total(),
		Hard:        roll.IsHard(),
		PointBefore: pointBefore,
		PointAfter:  t.point,
		Winnings:    winnings,
		Settlements: s.lines,
		Log:         s.logText(),
		Snapshot:    t.snapshotLocked(),
	}
}
