package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Sides of a single die.
const Sides = 6

// Roll is one throw of two dice. Faces are 1..6.
type Roll struct {
	D1 int `json:"d1"`
	D2 int `json:"d2"`
}

func New(d1, d2 int) (Roll, error) {
	r := Roll{D1: d1, D2: d2}
	if !r.Valid() {
		return Roll{}, fmt.Errorf("invalid dice: %d-%d", d1, d2)
	}
	return r, nil
}

func (r Roll) Valid() bool {
	return r.D1 >= 1 && r.D1 <= Sides && r.D2 >= 1 && r.D2 <= Sides
}

func (r Roll) Total() int { return r.D1 + r.D2 }

// IsHard reports a pair (both dice equal).
func (r Roll) IsHard() bool { return r.D1 == r.D2 }

func (r Roll) String() string {
	return fmt.Sprintf("%d-%d", r.D1, r.D2)
}

// Name returns the stickman call for the roll.
func (r Roll) Name() string {
	switch r.Total() {
	case 2:
		return "Aces"
	case 3:
		return "Ace-Deuce"
	case 11:
		return "Yo"
	case 12:
		return "Boxcars"
	case 7:
		return "Seven"
	}
	if r.IsHard() {
		return "Hard " + strconv.Itoa(r.Total())
	}
	return "Easy " + strconv.Itoa(r.Total())
}

// Parse accepts "3-4", "3,4" or "34".
func Parse(s string) (Roll, error) {
	s = strings.TrimSpace(s)
	var parts []string
	switch {
	case strings.Contains(s, "-"):
		parts = strings.SplitN(s, "-", 2)
	case strings.Contains(s, ","):
		parts = strings.SplitN(s, ",", 2)
	case len(s) == 2:
		parts = []string{s[:1], s[1:]}
	default:
		return Roll{}, fmt.Errorf("invalid dice string: %q", s)
	}
	d1, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Roll{}, fmt.Errorf("invalid dice string: %q", s)
	}
	d2, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Roll{}, fmt.Errorf("invalid dice string: %q", s)
	}
	return New(d1, d2)
}

// Combinations is the number of ways (out of 36) to roll total.
func Combinations(total int) int {
	if total < 2 || total > 12 {
		return 0
	}
	if total <= 7 {
		return total - 1
	}
	return 13 - total
}
