package dice

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrExhausted = errors.New("dice script exhausted")

// Roller is a source of dice throws.
type Roller interface {
	Next() (Roll, error)
}

// SeededRoller draws two independent uniform dice from a math/rand source.
type SeededRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRoller returns a roller seeded with seed (0 => time-based).
func NewSeededRoller(seed int64) *SeededRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *SeededRoller) Next() (Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Roll{D1: r.rng.Intn(Sides) + 1, D2: r.rng.Intn(Sides) + 1}, nil
}

// ScriptedRoller replays a fixed sequence of throws.
type ScriptedRoller struct {
	mu    sync.Mutex
	rolls []Roll
	next  int
}

func NewScriptedRoller(rolls ...Roll) *ScriptedRoller {
	return &ScriptedRoller{rolls: append([]Roll{}, rolls...)}
}

func (r *ScriptedRoller) Next() (Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.rolls) {
		return Roll{}, ErrExhausted
	}
	roll := r.rolls[r.next]
	r.next++
	return roll, nil
}

// Remaining returns the number of unused throws.
func (r *ScriptedRoller) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rolls) - r.next
}
