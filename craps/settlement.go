package craps

import (
	"fmt"
	"strings"

	"craps-lite/dice"
)

// Outcome of one wager on a roll.
type Outcome byte

const (
	OutcomeWin    Outcome = 1
	OutcomeLose   Outcome = 2
	OutcomePush   Outcome = 3 // stake returned, no profit
	OutcomeMove   Outcome = 4 // come / don't come travelled to the number
	OutcomeReturn Outcome = 5 // odds that were off, taken down
)

var OutcomeDictionary = map[Outcome]string{
	OutcomeWin:    "win",
	OutcomeLose:   "lose",
	OutcomePush:   "push",
	OutcomeMove:   "move",
	OutcomeReturn: "return",
}

func (o Outcome) String() string {
	if s, ok := OutcomeDictionary[o]; ok {
		return s
	}
	return "unknown"
}

type Settlement struct {
	Kind    BetKind
	Outcome Outcome
	Stake   int64
	// Credited to the bankroll by this wager alone (profit floored)
	Credited int64
	// Wager stays on the layout after a win
	StaysUp bool
	// Destination of a moved come / don't come bet; zero otherwise
	To BetKind
}

// String leaves out the destination unless the wager moved.
func (st Settlement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s stake=%d credited=%d", st.Kind, st.Outcome, st.Stake, st.Credited)
	if st.StaysUp {
		b.WriteString(" up")
	}
	if st.Outcome == OutcomeMove {
		fmt.Fprintf(&b, " to=%s", st.To)
	}
	return b.String()
}

type RollResult struct {
	Dice        dice.Roll
	Total       int
	Hard        bool
	PointBefore int
	PointAfter  int

	// Stakes returned plus profit, credited in one update
	Winnings    int64
	Settlements []Settlement
	Log         string
	Snapshot    Snapshot
}

type settler struct {
	t     *Table
	roll  dice.Roll
	total int

	profit60 int64
	returned int64
	lost     int64

	lines []Settlement
	notes []string
}

func newSettler(t *Table, roll dice.Roll) *settler {
	s := &settler{t: t, roll: roll, total: roll.Total()}
	if roll.IsHard() {
		s.note("Rolled %d (Hard).", s.total)
	} else {
		s.note("Rolled %d.", s.total)
	}
	return s
}

func (s *settler) note(format string, args ...any) {
	s.notes = append(s.notes, fmt.Sprintf(format, args...))
}

func (s *settler) logText() string {
	return strings.Join(s.notes, " ")
}

func (s *settler) has(k BetKind) bool { return s.t.wagers[k] > 0 }

func (s *settler) win(k BetKind, r ratio, staysUp bool) {
	stake := s.t.wagers[k]
	if stake <= 0 {
		return
	}
	p60 := r.profit60(stake)
	s.profit60 += p60
	credited := p60 / payoutUnit
	if !staysUp {
		delete(s.t.wagers, k)
		s.returned += stake
		credited += stake
	}
	s.lines = append(s.lines, Settlement{Kind: k, Outcome: OutcomeWin, Stake: stake, Credited: credited, StaysUp: staysUp})
}

func (s *settler) lose(k BetKind) {
	stake := s.t.wagers[k]
	if stake <= 0 {
		return
	}
	delete(s.t.wagers, k)
	s.lost += stake
	s.lines = append(s.lines, Settlement{Kind: k, Outcome: OutcomeLose, Stake: stake})
}

func (s *settler) giveBack(k BetKind, outcome Outcome) {
	stake := s.t.wagers[k]
	if stake <= 0 {
		return
	}
	delete(s.t.wagers, k)
	s.returned += stake
	s.lines = append(s.lines, Settlement{Kind: k, Outcome: outcome, Stake: stake, Credited: stake})
}

func (s *settler) move(from, to BetKind) {
	stake := s.t.wagers[from]
	if stake <= 0 {
		return
	}
	delete(s.t.wagers, from)
	s.t.wagers[to] += stake
	s.lines = append(s.lines, Settlement{Kind: from, Outcome: OutcomeMove, Stake: stake, To: to})
}

// settleLegacy resolves field, pass and don't pass only. Pass stays up on
// a seven-out, don't pass stays up when the point is made, and pass odds
// are taken down unpaid on a made point.
func (s *settler) settleLegacy() {
	t := s.t
	s.settleField()

	if t.point == PointOff {
		s.comeOutLine()
		return
	}
	switch s.total {
	case t.point:
		s.win(Pass, evenMoney, false)
		s.lose(PassOdds)
		t.point = PointOff
		s.note("Point Made!")
	case 7:
		s.win(DontPass, evenMoney, false)
		t.point = PointOff
		s.note("Seven Out.")
	}
}

func (s *settler) settleField() {
	if !s.has(Field) {
		return
	}
	switch s.total {
	case 2, 12:
		s.win(Field, ratio{2, 1}, false)
		s.note("Field Win!")
	case 3, 4, 9, 10, 11:
		s.win(Field, evenMoney, false)
		s.note("Field Win!")
	default:
		s.lose(Field)
	}
}

// comeOutLine settles pass / don't pass on a come-out roll and sets the
// point on a box number.
func (s *settler) comeOutLine() {
	switch s.total {
	case 7, 11:
		s.win(Pass, evenMoney, false)
		s.lose(DontPass)
	case 2, 3:
		s.lose(Pass)
		s.win(DontPass, evenMoney, false)
	case 12:
		s.lose(Pass)
		s.giveBack(DontPass, OutcomePush)
	default:
		s.t.point = s.total
		s.note("Point is %d.", s.total)
	}
}

func (s *settler) settleComplete() {
	t := s.t
	comeOut := t.point == PointOff
	working := !comeOut || t.working

	s.settleField()
	s.settleProps()
	s.settleHardways(working)
	s.settleBig()
	s.settleBoxes(working)
	s.settleComePoints(working)
	s.settleComeBets()

	if comeOut {
		s.comeOutLine()
		return
	}
	point := t.point
	switch s.total {
	case point:
		s.win(Pass, evenMoney, false)
		s.win(PassOdds, trueOdds[point], false)
		s.lose(DontPass)
		s.lose(DontPassOdds)
		t.point = PointOff
		s.note("Point Made!")
	case 7:
		s.lose(Pass)
		s.lose(PassOdds)
		s.win(DontPass, evenMoney, false)
		s.win(DontPassOdds, layOdds[point], false)
		t.point = PointOff
		s.note("Seven Out.")
	}
}

func (s *settler) settleProps() {
	total := s.total
	oneRoll := func(k BetKind, wins bool, r ratio) {
		if wins {
			s.win(k, r, false)
		} else {
			s.lose(k)
		}
	}
	craps := total == 2 || total == 3 || total == 12
	oneRoll(AnySeven, total == 7, anySevenOdds)
	oneRoll(AnyCraps, craps, anyCrapsOdds)
	oneRoll(CBet, craps, anyCrapsOdds)
	oneRoll(AceDeuce, total == 3, aceDeuceOdds)
	oneRoll(Yo11, total == 11, elevenOdds)
	oneRoll(EBet, total == 11, elevenOdds)
	oneRoll(Aces, total == 2, midnightOdds)
	oneRoll(Twelve, total == 12, midnightOdds)

	switch total {
	case 2, 12:
		s.win(Horn, hornCrapsOdds, false)
	case 3, 11:
		s.win(Horn, hornElevenOdds, false)
	default:
		s.lose(Horn)
	}
}

func (s *settler) settleHardways(working bool) {
	if !working {
		return
	}
	for _, n := range HardNumbers {
		k := Hard(n)
		if !s.has(k) {
			continue
		}
		switch {
		case s.total == n && s.roll.IsHard():
			s.win(k, hardOdds[n], true)
		case s.total == n, s.total == 7:
			s.lose(k)
		}
	}
}

func (s *settler) settleBig() {
	switch s.total {
	case 6:
		s.win(Big6, evenMoney, true)
	case 8:
		s.win(Big8, evenMoney, true)
	case 7:
		s.lose(Big6)
		s.lose(Big8)
	}
}

func (s *settler) settleBoxes(working bool) {
	for _, n := range BoxNumbers {
		if s.total == 7 {
			if working {
				s.lose(Place(n))
				s.lose(Buy(n))
			}
			s.win(Lay(n), layOdds[n], true)
			continue
		}
		if s.total != n {
			continue
		}
		if working {
			s.win(Place(n), placeOdds[n], true)
			s.win(Buy(n), trueOdds[n], true)
		}
		s.lose(Lay(n))
	}
}

// settleComePoints resolves come and don't come bets already on a number,
// with their odds. Odds that are off on a come-out roll are returned.
func (s *settler) settleComePoints(working bool) {
	for _, n := range BoxNumbers {
		switch s.total {
		case n:
			s.win(ComePoint(n), evenMoney, false)
			if working {
				s.win(ComeOdds(n), trueOdds[n], false)
			} else {
				s.giveBack(ComeOdds(n), OutcomeReturn)
			}
			s.lose(DontComePoint(n))
			s.lose(DontComeOdds(n))
		case 7:
			s.lose(ComePoint(n))
			if working {
				s.lose(ComeOdds(n))
			} else {
				s.giveBack(ComeOdds(n), OutcomeReturn)
			}
			s.win(DontComePoint(n), evenMoney, false)
			s.win(DontComeOdds(n), layOdds[n], false)
		}
	}
}

func (s *settler) settleComeBets() {
	switch s.total {
	case 7, 11:
		s.win(Come, evenMoney, false)
		s.lose(DontCome)
	case 2, 3:
		s.lose(Come)
		s.win(DontCome, evenMoney, false)
	case 12:
		s.lose(Come)
		s.giveBack(DontCome, OutcomePush)
	default:
		if s.has(Come) {
			s.move(Come, ComePoint(s.total))
			s.note("Come bet travels to %d.", s.total)
		}
		if s.has(DontCome) {
			s.move(DontCome, DontComePoint(s.total))
			s.note("Don't come bet travels to %d.", s.total)
		}
	}
}
