package craps

// ratio is a payout of Num for every Den staked.
type ratio struct {
	Num int64
	Den int64
}

// Profits are summed in sixtieths so every ratio below divides exactly.
const payoutUnit int64 = 60

func (r ratio) profit60(stake int64) int64 {
	return stake * r.Num * (payoutUnit / r.Den)
}

var (
	evenMoney = ratio{1, 1}

	// odds behind pass / come
	trueOdds = map[int]ratio{
		4: {2, 1}, 10: {2, 1},
		5: {3, 2}, 9: {3, 2},
		6: {6, 5}, 8: {6, 5},
	}
	// odds behind don't pass / don't come, and lay bets
	layOdds = map[int]ratio{
		4: {1, 2}, 10: {1, 2},
		5: {2, 3}, 9: {2, 3},
		6: {5, 6}, 8: {5, 6},
	}
	placeOdds = map[int]ratio{
		4: {9, 5}, 10: {9, 5},
		5: {7, 5}, 9: {7, 5},
		6: {7, 6}, 8: {7, 6},
	}
	hardOdds = map[int]ratio{
		4: {7, 1}, 10: {7, 1},
		6: {9, 1}, 8: {9, 1},
	}

	anySevenOdds = ratio{4, 1}
	anyCrapsOdds = ratio{7, 1}
	elevenOdds   = ratio{15, 1}
	aceDeuceOdds = ratio{15, 1}
	midnightOdds = ratio{30, 1}

	// horn is four equal units; a winning unit pays, the other three lose
	hornCrapsOdds  = ratio{27, 4} // 2 or 12: 30 - 3 over 4 units
	hornElevenOdds = ratio{3, 1}  // 3 or 11: 15 - 3 over 4 units
)

// buyCommission is 5% of the buy total, at least 1.
func buyCommission(total int64) int64 {
	c := total / 20
	if c < 1 {
		c = 1
	}
	return c
}

// layCommission is 5% of what the lay would win, at least 1.
func layCommission(n int, total int64) int64 {
	r := layOdds[n]
	c := total * r.Num / (r.Den * 20)
	if c < 1 {
		c = 1
	}
	return c
}

// Commission returns the vig charged when a wager of kind reaches total.
func Commission(kind BetKind, total int64) int64 {
	switch kind.Type {
	case BetTypeBuy:
		return buyCommission(total)
	case BetTypeLay:
		return layCommission(kind.Number, total)
	}
	return 0
}
