package craps

import (
	"sort"

	"craps-lite/dice"
)

type Wager struct {
	Kind   BetKind
	Amount int64
}

type Snapshot struct {
	Point    int
	Phase    Phase
	Bankroll int64
	Wagers   map[BetKind]int64
	Working  bool

	Dice    dice.Roll
	Rolling bool

	TableMinimum int64
	TableMaximum int64

	StartingBankroll int64
	CommissionPaid   int64
	TotalWon         int64
	TotalLost        int64
	RollCount        uint64
}

func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	wagers := make(map[BetKind]int64, len(t.wagers))
	for k, v := range t.wagers {
		wagers[k] = v
	}
	return Snapshot{
		Point:            t.point,
		Phase:            phaseOf(t.point),
		Bankroll:         t.bankroll,
		Wagers:           wagers,
		Working:          t.working,
		Dice:             t.lastRoll,
		Rolling:          t.rolling,
		TableMinimum:     t.cfg.TableMinimum,
		TableMaximum:     t.cfg.TableMaximum,
		StartingBankroll: t.cfg.StartingBankroll,
		CommissionPaid:   t.commissionPaid,
		TotalWon:         t.totalWon,
		TotalLost:        t.totalLost,
		RollCount:        t.rollCount,
	}
}

// TotalStaked is the sum of all wagers on the layout.
func (s Snapshot) TotalStaked() int64 {
	var sum int64
	for _, v := range s.Wagers {
		sum += v
	}
	return sum
}

// SortedWagers lists wagers in layout order.
func (s Snapshot) SortedWagers() []Wager {
	out := make([]Wager, 0, len(s.Wagers))
	for k, v := range s.Wagers {
		out = append(out, Wager{Kind: k, Amount: v})
	}
	sortWagers(out)
	return out
}

func sortWagers(ws []Wager) {
	sort.Slice(ws, func(i, j int) bool {
		return kindLess(ws[i].Kind, ws[j].Kind)
	})
}

func kindLess(a, b BetKind) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Number < b.Number
}
