package codec

import (
	"errors"

	"craps-lite/craps"
	"craps-lite/dice"
)

func SnapshotPayload(s craps.Snapshot) map[string]any {
	wagers := make(map[string]any, len(s.Wagers))
	for _, w := range s.SortedWagers() {
		wagers[w.Kind.String()] = w.Amount
	}
	return map[string]any{
		"point":           s.Point,
		"phase":           s.Phase.String(),
		"bankroll":        s.Bankroll,
		"wagers":          wagers,
		"working":         s.Working,
		"rolling":         s.Rolling,
		"dice":            diceValue(s.Dice),
		"table_min":       s.TableMinimum,
		"table_max":       s.TableMaximum,
		"commission_paid": s.CommissionPaid,
		"roll_count":      s.RollCount,
	}
}

func PlacementPayload(p craps.Placement, s craps.Snapshot) map[string]any {
	return map[string]any{
		"bet":        p.Kind.String(),
		"amount":     p.Amount,
		"commission": p.Commission,
		"new_total":  p.NewTotal,
		"bankroll":   s.Bankroll,
	}
}

func MovePayload(from, to craps.BetKind, s craps.Snapshot) map[string]any {
	return map[string]any{
		"from":     from.String(),
		"to":       to.String(),
		"amount":   s.Wagers[to],
		"bankroll": s.Bankroll,
	}
}

func DiceThrownPayload(r dice.Roll) map[string]any {
	return map[string]any{
		"dice":  diceValue(r),
		"total": r.Total(),
		"call":  r.Name(),
	}
}

func RollPayload(r *craps.RollResult) map[string]any {
	lines := make([]any, 0, len(r.Settlements))
	for _, st := range r.Settlements {
		line := map[string]any{
			"bet":      st.Kind.String(),
			"outcome":  st.Outcome.String(),
			"stake":    st.Stake,
			"credited": st.Credited,
			"stays_up": st.StaysUp,
		}
		if st.Outcome == craps.OutcomeMove {
			line["to"] = st.To.String()
		}
		lines = append(lines, line)
	}
	return map[string]any{
		"dice":         diceValue(r.Dice),
		"total":        r.Total,
		"hard":         r.Hard,
		"point_before": r.PointBefore,
		"point_after":  r.PointAfter,
		"winnings":     r.Winnings,
		"settlements":  lines,
		"log":          r.Log,
		"bankroll":     r.Snapshot.Bankroll,
	}
}

// ErrorPayload carries the engine error kind as code when there is one.
func ErrorPayload(err error) map[string]any {
	code := "internal"
	if kind, ok := craps.KindOf(err); ok {
		code = kind.String()
	}
	var ise craps.InvalidStateError
	if errors.As(err, &ise) {
		code = "invalid_state"
	}
	return map[string]any{
		"code":    code,
		"message": err.Error(),
	}
}

func diceValue(r dice.Roll) []any {
	return []any{r.D1, r.D2}
}
