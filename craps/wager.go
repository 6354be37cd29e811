package craps

// Placement describes an accepted PlaceBet call.
type Placement struct {
	Kind       BetKind
	Amount     int64
	Commission int64
	NewTotal   int64
}

// PlaceBet adds amount to the wager on kind, charging commission on buy
// and lay bets. A rejected call leaves the table unchanged.
func (t *Table) PlaceBet(kind BetKind, amount int64) (Placement, Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.placeLocked(kind, amount)
	return p, t.snapshotLocked(), err
}

func (t *Table) placeLocked(kind BetKind, amount int64) (Placement, error) {
	if t.rolling {
		return Placement{}, newError(KindRollInProgress, "bets are locked while dice are rolling")
	}
	if !kind.Valid() {
		return Placement{}, newError(KindInvalidBet, "%s is not a bet", kind)
	}
	if err := t.checkAmount(amount); err != nil {
		return Placement{}, err
	}
	if t.bankroll < amount {
		return Placement{}, newError(KindInsufficientFunds, "bankroll %d < %d", t.bankroll, amount)
	}

	newTotal := t.wagers[kind] + amount
	if err := t.checkDestinationLocked(kind, newTotal); err != nil {
		return Placement{}, err
	}

	commission := Commission(kind, newTotal)
	if t.bankroll < amount+commission {
		return Placement{}, newError(KindInsufficientFunds, "need %d for bet + commission, bankroll %d", amount+commission, t.bankroll)
	}

	t.bankroll -= amount + commission
	t.wagers[kind] = newTotal
	t.commissionPaid += commission
	return Placement{Kind: kind, Amount: amount, Commission: commission, NewTotal: newTotal}, nil
}

// checkDestinationLocked applies the layout rules for a wager on kind that
// would total newTotal, whether it arrives by placement or by a move.
func (t *Table) checkDestinationLocked(kind BetKind, newTotal int64) error {
	if kind.IsStandard() && newTotal > t.cfg.TableMaximum {
		return newError(KindTableLimitExceeded, "%s would be %d, table max is %d", kind, newTotal, t.cfg.TableMaximum)
	}
	if (kind == Come || kind == DontCome) && t.point == PointOff {
		return newError(KindIllegalPhase, "%s needs an established point", kind)
	}
	if t.cfg.Settlement == SettlementComplete && kind.isOdds() {
		if (kind == PassOdds || kind == DontPassOdds) && t.point == PointOff {
			return newError(KindIllegalPhase, "%s needs an established point", kind)
		}
		base, _ := kind.baseOf()
		if t.wagers[base] <= 0 {
			return newError(KindNoLineBet, "%s needs a %s bet", kind, base)
		}
	}
	if kind.Type == BetTypeBuy && (kind.Number == 4 || kind.Number == 10) && newTotal < buyFourTenMinimum {
		return newError(KindBelowBuyMinimum, "buy %d needs at least %d, have %d", kind.Number, buyFourTenMinimum, newTotal)
	}
	return nil
}

// oddsOn returns the odds wager backed by the line wager k, if any.
func oddsOn(k BetKind) (BetKind, bool) {
	switch k.Type {
	case BetTypePass:
		return PassOdds, true
	case BetTypeDontPass:
		return DontPassOdds, true
	case BetTypeComePoint:
		return ComeOdds(k.Number), true
	case BetTypeDontComePoint:
		return DontComeOdds(k.Number), true
	}
	return BetKind{}, false
}

func (t *Table) checkAmount(amount int64) error {
	if amount <= 0 {
		return newError(KindInvalidAmount, "amount must be > 0, got %d", amount)
	}
	if len(t.cfg.ChipDenominations) == 0 {
		return nil
	}
	for _, chip := range t.cfg.ChipDenominations {
		if chip == amount {
			return nil
		}
	}
	return newError(KindInvalidAmount, "%d is not a chip denomination", amount)
}

// MoveBet moves the whole wager on from onto to. Commission already paid
// stays sunk; none is charged on the destination.
func (t *Table) MoveBet(from, to BetKind) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rolling {
		return t.snapshotLocked(), newError(KindRollInProgress, "bets are locked while dice are rolling")
	}
	if from == to {
		return t.snapshotLocked(), nil
	}
	amount := t.wagers[from]
	if amount <= 0 {
		return t.snapshotLocked(), newError(KindNoSuchWager, "no wager on %s", from)
	}
	if !to.Valid() {
		return t.snapshotLocked(), newError(KindInvalidBet, "%s is not a bet", to)
	}
	if odds, ok := oddsOn(from); ok && t.cfg.Settlement == SettlementComplete && t.wagers[odds] > 0 {
		return t.snapshotLocked(), newError(KindNoLineBet, "%s still backs %s; move or clear the odds first", from, odds)
	}
	if base, ok := to.baseOf(); ok && base == from && t.cfg.Settlement == SettlementComplete {
		return t.snapshotLocked(), newError(KindNoLineBet, "%s cannot become its own odds", from)
	}
	newTotal := t.wagers[to] + amount
	if err := t.checkDestinationLocked(to, newTotal); err != nil {
		return t.snapshotLocked(), err
	}

	delete(t.wagers, from)
	t.wagers[to] = newTotal
	return t.snapshotLocked(), nil
}

// ClearBets returns every wager to the bankroll. Commission is not refunded.
func (t *Table) ClearBets() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rolling {
		return t.snapshotLocked(), newError(KindRollInProgress, "bets are locked while dice are rolling")
	}
	t.bankroll += t.totalStakedLocked()
	t.wagers = make(map[BetKind]int64, 8)
	return t.snapshotLocked(), nil
}
