package table

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"craps-lite/apps/server/internal/ledger"
	"craps-lite/apps/server/internal/observability"
	"craps-lite/codec"
	"craps-lite/craps"
	"craps-lite/dice"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Table is one craps session run as an actor: every mutation goes through
// the events channel and is applied by run.
type Table struct {
	ID     string
	Config craps.Config

	mu       sync.RWMutex
	game     *craps.Table
	fair     *dice.FairRoller
	fairSeed []byte
	viewers  map[string]struct{}
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	serverSeq uint64
	rollSeq   uint64

	// Pending throw between RollDice and ResolveRoll.
	animation   time.Duration
	pending     dice.Roll
	pendingID   string
	resolveAt   time.Time
	rollStarted time.Time

	history    []string
	emptySince time.Time

	broadcast func(connID string, data []byte)
	ledger    ledger.Service
	metrics   *observability.Metrics
	logger    zerolog.Logger
	rollHooks []RollHook
}

type Options struct {
	Config craps.Config
	// Delay between dice thrown and settlement; 0 settles in the same event.
	Animation time.Duration
	// Non-nil enables provably fair dice keyed by this server seed.
	FairSeed  []byte
	Broadcast func(connID string, data []byte)
	Ledger    ledger.Service
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventPlaceBet
	EventMoveBet
	EventClearBets
	EventSetWorking
	EventRoll
	EventHistory
	EventClose
)

// Event is a message to the table actor.
type Event struct {
	Type      EventType
	ConnID    string
	Bet       craps.BetKind
	To        craps.BetKind
	Amount    int64
	Working   bool
	Limit     int
	Timestamp time.Time
	Response  chan error
}

// RollInfo is emitted after a roll settles.
type RollInfo struct {
	TableID  string
	RollID   string
	Seq      uint64
	Nonce    uint64
	Result   *craps.RollResult
	RolledAt time.Time
}

// RollHook is a post-settlement callback.
type RollHook func(info RollInfo)

var ErrTableClosed = errors.New("table closed")

const (
	historyLimit = 15
	tickInterval = 50 * time.Millisecond
	ledgerWrite  = 3 * time.Second
)

func New(id string, opts Options) (*Table, error) {
	cfg := opts.Config
	t := &Table{
		ID:         id,
		viewers:    make(map[string]struct{}),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		animation:  opts.Animation,
		emptySince: time.Now(),
		broadcast:  opts.Broadcast,
		ledger:     opts.Ledger,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("table", id).Logger(),
	}
	if t.broadcast == nil {
		t.broadcast = func(string, []byte) {}
	}
	if opts.FairSeed != nil {
		fr, err := dice.NewFairRoller(opts.FairSeed, id)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", id, err)
		}
		t.fair = fr
		t.fairSeed = append([]byte(nil), opts.FairSeed...)
		cfg.Roller = fr
	}

	game, err := craps.NewTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}
	t.game = game
	t.Config = game.Config()

	t.mu.Lock()
	t.broadcastToAll(codec.TypeSnapshot, t.snapshotPayload(game.Snapshot()))
	t.mu.Unlock()

	go t.run()

	t.logger.Info().
		Int64("min", cfg.TableMinimum).
		Int64("max", cfg.TableMaximum).
		Int64("bankroll", cfg.StartingBankroll).
		Str("settlement", cfg.Settlement.String()).
		Bool("fair", t.fair != nil).
		Msg("table created")
	return t, nil
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			t.logger.Debug().Msg("actor stopped")
			return
		}
	}
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoin:
		return t.handleJoin(e.ConnID, e.Timestamp)
	case EventLeave:
		return t.handleLeave(e.ConnID, e.Timestamp)
	case EventPlaceBet:
		return t.handlePlaceBet(e.Bet, e.Amount)
	case EventMoveBet:
		return t.handleMoveBet(e.Bet, e.To)
	case EventClearBets:
		return t.handleClearBets()
	case EventSetWorking:
		return t.handleSetWorking(e.Working)
	case EventRoll:
		return t.handleRoll(e.Timestamp)
	case EventHistory:
		return t.handleHistory(e.ConnID, e.Limit)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type %d", e.Type)
	}
}

func (t *Table) handleJoin(connID string, now time.Time) error {
	if connID == "" {
		return fmt.Errorf("join: empty connection id")
	}
	t.viewers[connID] = struct{}{}
	t.emptySince = time.Time{}
	t.sendToConn(connID, codec.TypeSnapshot, t.snapshotPayload(t.game.Snapshot()))
	t.logger.Info().Str("conn", connID).Int("viewers", len(t.viewers)).Msg("joined")
	return nil
}

func (t *Table) handleLeave(connID string, now time.Time) error {
	if _, ok := t.viewers[connID]; !ok {
		return nil
	}
	delete(t.viewers, connID)
	if len(t.viewers) == 0 {
		t.emptySince = now
	}
	t.logger.Info().Str("conn", connID).Int("viewers", len(t.viewers)).Msg("left")
	return nil
}

func (t *Table) handlePlaceBet(kind craps.BetKind, amount int64) error {
	p, snap, err := t.game.PlaceBet(kind, amount)
	if err != nil {
		t.recordRejection(err)
		return err
	}
	if t.metrics != nil {
		t.metrics.BetsPlaced.WithLabelValues(kind.Family()).Inc()
		if p.Commission > 0 {
			t.metrics.CommissionTotal.Add(float64(p.Commission))
		}
	}
	t.logger.Debug().Str("bet", kind.String()).Int64("amount", amount).Int64("vig", p.Commission).Msg("bet placed")
	t.broadcastToAll(codec.TypeBetPlaced, codec.PlacementPayload(p, snap))
	return nil
}

func (t *Table) handleMoveBet(from, to craps.BetKind) error {
	snap, err := t.game.MoveBet(from, to)
	if err != nil {
		t.recordRejection(err)
		return err
	}
	t.broadcastToAll(codec.TypeBetMoved, codec.MovePayload(from, to, snap))
	return nil
}

func (t *Table) handleClearBets() error {
	snap, err := t.game.ClearBets()
	if err != nil {
		t.recordRejection(err)
		return err
	}
	t.broadcastToAll(codec.TypeBetsCleared, t.snapshotPayload(snap))
	return nil
}

func (t *Table) handleSetWorking(on bool) error {
	snap, err := t.game.SetWorking(on)
	if err != nil {
		t.recordRejection(err)
		return err
	}
	t.broadcastToAll(codec.TypeWorking, t.snapshotPayload(snap))
	return nil
}

func (t *Table) handleRoll(now time.Time) error {
	roll, err := t.game.RollDice()
	if err != nil {
		t.recordRejection(err)
		return err
	}
	t.rollSeq++
	t.pending = roll
	t.pendingID = uuid.NewString()
	t.rollStarted = now

	payload := codec.DiceThrownPayload(roll)
	payload["roll_id"] = t.pendingID
	payload["roll_seq"] = t.rollSeq
	if t.fair != nil {
		payload["nonce"] = t.fair.Nonce()
	}
	t.broadcastToAll(codec.TypeDiceThrown, payload)

	if t.animation <= 0 {
		return t.resolvePendingLocked(now)
	}
	t.resolveAt = now.Add(t.animation)
	return nil
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.resolveAt.IsZero() {
		return
	}
	now := time.Now()
	if now.Before(t.resolveAt) {
		return
	}
	if err := t.resolvePendingLocked(now); err != nil {
		t.logger.Error().Err(err).Msg("resolve roll failed")
	}
}

func (t *Table) resolvePendingLocked(now time.Time) error {
	t.resolveAt = time.Time{}
	res, err := t.game.ResolveRoll(t.pending.D1, t.pending.D2)
	if err != nil {
		return err
	}

	info := RollInfo{
		TableID:  t.ID,
		RollID:   t.pendingID,
		Seq:      t.rollSeq,
		Result:   res,
		RolledAt: now.UTC(),
	}
	if t.fair != nil {
		info.Nonce = t.fair.Nonce()
	}

	t.history = append(t.history, res.Log)
	if len(t.history) > historyLimit {
		t.history = append([]string(nil), t.history[len(t.history)-historyLimit:]...)
	}

	payload := codec.RollPayload(res)
	payload["roll_id"] = info.RollID
	payload["roll_seq"] = info.Seq
	t.broadcastToAll(codec.TypeRollResult, payload)

	if t.metrics != nil {
		t.metrics.RollsTotal.WithLabelValues(RollOutcome(res)).Inc()
		t.metrics.WinningsTotal.Add(float64(res.Winnings))
		t.metrics.RollDuration.Observe(now.Sub(t.rollStarted).Seconds())
	}
	t.logger.Info().
		Str("roll", res.Dice.String()).
		Int("point", res.PointAfter).
		Int64("winnings", res.Winnings).
		Int64("bankroll", res.Snapshot.Bankroll).
		Msg(res.Log)

	t.persistRoll(info)
	t.dispatchRollHooks(info)
	t.pendingID = ""
	return nil
}

func (t *Table) handleHistory(connID string, limit int) error {
	lines := t.history
	if limit > 0 && limit < len(lines) {
		lines = lines[len(lines)-limit:]
	}
	out := make([]any, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		out = append(out, lines[i])
	}
	t.sendToConn(connID, codec.TypeHistory, map[string]any{"lines": out})
	return nil
}

// RollOutcome labels a settled roll from the line bettor's point of view.
func RollOutcome(res *craps.RollResult) string {
	switch {
	case res.PointBefore == craps.PointOff && res.PointAfter != craps.PointOff:
		return "pointSet"
	case res.PointBefore == craps.PointOff && (res.Total == 7 || res.Total == 11):
		return "natural"
	case res.PointBefore == craps.PointOff:
		return "craps"
	case res.Total == res.PointBefore:
		return "pointMade"
	case res.Total == 7:
		return "sevenOut"
	default:
		return "other"
	}
}

func (t *Table) recordRejection(err error) {
	if t.metrics == nil {
		return
	}
	reason := "internal"
	if kind, ok := craps.KindOf(err); ok {
		reason = kind.String()
	}
	t.metrics.BetRejections.WithLabelValues(reason).Inc()
}

func (t *Table) persistRoll(info RollInfo) {
	if t.ledger == nil {
		return
	}
	res := info.Result
	rec := ledger.RollRecord{
		RollID:      info.RollID,
		SessionID:   t.ID,
		Seq:         info.Seq,
		D1:          res.Dice.D1,
		D2:          res.Dice.D2,
		Total:       res.Total,
		PointBefore: res.PointBefore,
		PointAfter:  res.PointAfter,
		Winnings:    res.Winnings,
		Bankroll:    res.Snapshot.Bankroll,
		Log:         res.Log,
		Nonce:       info.Nonce,
		RolledAt:    info.RolledAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerWrite)
		defer cancel()
		if err := t.ledger.RecordRoll(ctx, rec); err != nil {
			t.logger.Warn().Err(err).Uint64("seq", rec.Seq).Msg("record roll failed")
		}
	}()
}

func (t *Table) dispatchRollHooks(info RollInfo) {
	if len(t.rollHooks) == 0 {
		return
	}
	hooks := append([]RollHook(nil), t.rollHooks...)
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		go func(cb RollHook) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error().Interface("panic", r).Msg("roll hook panic")
				}
			}()
			cb(info)
		}(hook)
	}
}

// SubmitEvent hands e to the actor and waits for the result.
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop closes the table. A fair table reveals its server seed to viewers.
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	if t.closed {
		return
	}
	payload := map[string]any{"roll_count": t.rollSeq}
	if t.fair != nil {
		payload["server_seed"] = hex.EncodeToString(t.fairSeed)
		payload["commitment"] = t.fair.Commitment()
	}
	t.broadcastToAll(codec.TypeClosed, payload)
	t.closed = true
	t.resolveAt = time.Time{}
	t.stopOnce.Do(func() {
		close(t.done)
	})
	t.logger.Info().Uint64("rolls", t.rollSeq).Msg("table closed")
}

func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return true
	}
	if len(t.viewers) > 0 || t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot returns current game state (thread-safe)
func (t *Table) Snapshot() craps.Snapshot {
	return t.game.Snapshot()
}

// History returns the most recent roll log lines, newest first.
func (t *Table) History() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.history))
	for i := len(t.history) - 1; i >= 0; i-- {
		out = append(out, t.history[i])
	}
	return out
}

// Commitment is the fair-dice seed commitment, empty for ordinary dice.
func (t *Table) Commitment() string {
	if t.fair == nil {
		return ""
	}
	return t.fair.Commitment()
}

// AddRollHook registers a post-settlement callback.
func (t *Table) AddRollHook(hook RollHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.rollHooks = append(t.rollHooks, hook)
	t.mu.Unlock()
}

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) snapshotPayload(s craps.Snapshot) map[string]any {
	payload := codec.SnapshotPayload(s)
	payload["session_id"] = t.ID
	if t.fair != nil {
		payload["commitment"] = t.fair.Commitment()
		payload["nonce"] = t.fair.Nonce()
	}
	return payload
}

func (t *Table) envelope(seq uint64, typ string, payload map[string]any) codec.Envelope {
	return codec.Envelope{
		TableID: t.ID,
		Seq:     seq,
		TsMs:    time.Now().UnixMilli(),
		Type:    typ,
		Payload: payload,
	}
}

// sendToConn answers one connection. Private messages reuse the current
// sequence number so the ledger stream stays gap-free.
func (t *Table) sendToConn(connID string, typ string, payload map[string]any) {
	data, err := codec.Marshal(t.envelope(t.serverSeq, typ, payload))
	if err != nil {
		t.logger.Error().Err(err).Str("type", typ).Msg("marshal message failed")
		return
	}
	t.broadcast(connID, data)
}

func (t *Table) broadcastToAll(typ string, payload map[string]any) {
	env := t.envelope(t.nextSeq(), typ, payload)
	data, err := codec.Marshal(env)
	if err != nil {
		t.logger.Error().Err(err).Str("type", typ).Msg("marshal message failed")
		return
	}
	if t.ledger != nil {
		go t.ledger.AppendEvent(t.ID, env)
	}
	for connID := range t.viewers {
		t.broadcast(connID, data)
	}
}
