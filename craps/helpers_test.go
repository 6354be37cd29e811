package craps

import (
	"testing"

	"craps-lite/dice"
)

func newTestTable(t *testing.T, mods ...func(*Config)) *Table {
	t.Helper()
	cfg := Config{
		TableMinimum:     5,
		TableMaximum:     1000,
		StartingBankroll: 10000,
		Seed:             7,
	}
	for _, m := range mods {
		m(&cfg)
	}
	tbl, err := NewTable(cfg)
	if err != nil {
		t.Fatalf("NewTable err: %v", err)
	}
	return tbl
}

func legacy(c *Config) { c.Settlement = SettlementLegacy }

func withRolls(rolls ...dice.Roll) func(*Config) {
	return func(c *Config) { c.Roller = dice.NewScriptedRoller(rolls...) }
}

// layout puts the table into a scenario state.
func layout(t *testing.T, tbl *Table, point int, bankroll int64, wagers map[BetKind]int64) {
	t.Helper()
	err := tbl.Restore(Snapshot{
		Point:        point,
		Bankroll:     bankroll,
		Wagers:       wagers,
		TableMinimum: 5,
		TableMaximum: 1000,
	})
	if err != nil {
		t.Fatalf("Restore err: %v", err)
	}
}

func mustResolve(t *testing.T, tbl *Table, d1, d2 int) *RollResult {
	t.Helper()
	res, err := tbl.ResolveRoll(d1, d2)
	if err != nil {
		t.Fatalf("ResolveRoll(%d,%d) err: %v", d1, d2, err)
	}
	if err := tbl.CheckInvariants(); err != nil {
		t.Fatalf("invariants after roll: %v", err)
	}
	return res
}
