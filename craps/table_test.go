package craps

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewTable_ValidatesConfig(t *testing.T) {
	bad := []Config{
		{TableMinimum: 0, TableMaximum: 100},
		{TableMinimum: 10, TableMaximum: 5},
		{TableMinimum: 5, TableMaximum: 100, StartingBankroll: -1},
		{TableMinimum: 5, TableMaximum: 100, ChipDenominations: []int64{5, 0}},
		{TableMinimum: 5, TableMaximum: 100, Settlement: SettlementMode(9)},
	}
	for i, cfg := range bad {
		if _, err := NewTable(cfg); err == nil {
			t.Fatalf("config %d should be rejected", i)
		}
	}
	tbl, err := NewTable(DefaultConfig())
	if err != nil {
		t.Fatalf("default config err: %v", err)
	}
	snap := tbl.Snapshot()
	if snap.Bankroll != 10000 || snap.Phase != PhaseComeOut || len(snap.Wagers) != 0 {
		t.Fatalf("unexpected fresh table %+v", snap)
	}
}

func TestRestore_RejectsBrokenState(t *testing.T) {
	tbl := newTestTable(t)
	before := tbl.Snapshot()
	bad := []Snapshot{
		{Point: 7, TableMinimum: 5, TableMaximum: 10},
		{Bankroll: -5, TableMinimum: 5, TableMaximum: 10},
		{TableMinimum: 5, TableMaximum: 1},
		{TableMinimum: 5, TableMaximum: 10, Wagers: map[BetKind]int64{Pass: 0}},
		{TableMinimum: 5, TableMaximum: 10, Wagers: map[BetKind]int64{{Type: BetTypeLay, Number: 7}: 10}},
	}
	for i, s := range bad {
		var ise InvalidStateError
		if err := tbl.Restore(s); !errors.As(err, &ise) {
			t.Fatalf("state %d: expected InvalidStateError, got %v", i, err)
		}
	}
	if diff := cmp.Diff(before, tbl.Snapshot()); diff != "" {
		t.Fatalf("rejected restore changed state:\n%s", diff)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	tbl := newTestTable(t)
	if _, _, err := tbl.PlaceBet(Pass, 10); err != nil {
		t.Fatal(err)
	}
	snap := tbl.Snapshot()
	snap.Wagers[Pass] = 999
	if tbl.Snapshot().Wagers[Pass] != 10 {
		t.Fatalf("snapshot must not alias table wagers")
	}
	ws := snap.SortedWagers()
	if len(ws) != 1 || ws[0].Kind != Pass {
		t.Fatalf("unexpected sorted wagers %v", ws)
	}
}

// TestTable_RandomSessionConservesBankroll drives a long random session and
// checks the ledger after every call; failed calls must not change anything.
func TestTable_RandomSessionConservesBankroll(t *testing.T) {
	for _, mode := range []SettlementMode{SettlementComplete, SettlementLegacy} {
		tbl := newTestTable(t, func(c *Config) {
			c.Settlement = mode
			c.StartingBankroll = 5000
			c.Seed = 20240601
		})
		rng := rand.New(rand.NewSource(99))
		kinds := allKinds()
		chips := []int64{1, 5, 25, 100}

		for step := 0; step < 3000; step++ {
			before := tbl.Snapshot()
			var err error
			switch op := rng.Intn(10); {
			case op < 5:
				_, _, err = tbl.PlaceBet(kinds[rng.Intn(len(kinds))], chips[rng.Intn(len(chips))])
			case op < 6:
				_, err = tbl.MoveBet(kinds[rng.Intn(len(kinds))], kinds[rng.Intn(len(kinds))])
			case op < 7 && rng.Intn(5) == 0:
				_, err = tbl.ClearBets()
			default:
				_, err = tbl.Roll()
				if errors.Is(err, ErrNoLineBet) || errors.Is(err, ErrBelowTableMinimum) {
					if _, _, perr := tbl.PlaceBet(Pass, 25); perr == nil {
						before = tbl.Snapshot()
						_, err = tbl.Roll()
					}
				}
			}
			if err != nil {
				if _, ok := KindOf(err); !ok {
					t.Fatalf("step %d: unexpected error type %v", step, err)
				}
				if diff := cmp.Diff(before, tbl.Snapshot()); diff != "" {
					t.Fatalf("step %d (%s): failed call changed state:\n%s", step, mode, diff)
				}
			}
			if err := tbl.CheckInvariants(); err != nil {
				t.Fatalf("step %d (%s): %v", step, mode, err)
			}
			snap := tbl.Snapshot()
			if snap.Bankroll < 0 {
				t.Fatalf("step %d: negative bankroll", step)
			}
			if mode == SettlementComplete {
				for k := range snap.Wagers {
					if base, ok := k.baseOf(); ok && snap.Wagers[base] <= 0 {
						t.Fatalf("step %d: %s on the layout without %s: %v", step, k, base, snap.Wagers)
					}
				}
			}
		}
	}
}

func TestConfig_ReadsRestoredLimitsUnderLock(t *testing.T) {
	tbl := newTestTable(t, func(c *Config) { c.ChipDenominations = []int64{5, 25} })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = tbl.Restore(Snapshot{Bankroll: 100, TableMinimum: 10, TableMaximum: 500})
		}
	}()
	for i := 0; i < 200; i++ {
		cfg := tbl.Config()
		if cfg.TableMinimum != 5 && cfg.TableMinimum != 10 {
			t.Fatalf("unexpected table minimum %d", cfg.TableMinimum)
		}
	}
	wg.Wait()

	cfg := tbl.Config()
	if cfg.TableMinimum != 10 || cfg.TableMaximum != 500 || cfg.StartingBankroll != 100 {
		t.Fatalf("restored limits not visible: %+v", cfg)
	}
	cfg.ChipDenominations[0] = 1
	if tbl.Config().ChipDenominations[0] != 5 {
		t.Fatalf("Config must not alias chip denominations")
	}
}
