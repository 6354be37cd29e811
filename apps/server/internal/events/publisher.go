package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const outboundBuffer = 1024

// RollMessage is published once per settled roll on <subject>.<session id>.
type RollMessage struct {
	SessionID   string    `json:"session_id"`
	RollID      string    `json:"roll_id"`
	Seq         uint64    `json:"seq"`
	Dice        [2]int    `json:"dice"`
	Total       int       `json:"total"`
	PointBefore int       `json:"point_before"`
	PointAfter  int       `json:"point_after"`
	Winnings    int64     `json:"winnings"`
	Bankroll    int64     `json:"bankroll"`
	Log         string    `json:"log"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishRoll(msg RollMessage)
	Close() error
}

type noopPublisher struct{}

func (noopPublisher) PublishRoll(RollMessage) {}
func (noopPublisher) Close() error            { return nil }

// NATSPublisher forwards roll messages from a buffered queue so a slow
// broker never blocks a session. Messages are dropped when the queue is full.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  zerolog.Logger

	queue     chan RollMessage
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewPublisher connects to url. An empty url yields a publisher that
// discards everything.
func NewPublisher(url, subject string, logger zerolog.Logger) (Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return noopPublisher{}, nil
	}
	logger = logger.With().Str("component", "events").Logger()
	nc, err := nats.Connect(url,
		nats.Name("craps-lite"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	p := &NATSPublisher{
		nc:      nc,
		subject: strings.TrimSuffix(subject, "."),
		logger:  logger,
		queue:   make(chan RollMessage, outboundBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *NATSPublisher) PublishRoll(msg RollMessage) {
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.queue <- msg:
	default:
		if n := p.dropped.Add(1); n%100 == 1 {
			p.logger.Warn().Uint64("dropped", n).Msg("roll publish queue full")
		}
	}
}

func (p *NATSPublisher) run() {
	defer close(p.stopped)
	for {
		select {
		case msg := <-p.queue:
			p.publish(msg)
		case <-p.done:
			// Drain what is already queued.
			for {
				select {
				case msg := <-p.queue:
					p.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *NATSPublisher) publish(msg RollMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn().Err(err).Str("session", msg.SessionID).Msg("marshal roll message failed")
		return
	}
	if err := p.nc.Publish(Subject(p.subject, msg.SessionID), data); err != nil {
		p.logger.Warn().Err(err).Str("session", msg.SessionID).Uint64("seq", msg.Seq).Msg("publish roll failed")
	}
}

func (p *NATSPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	<-p.stopped
	if err := p.nc.Flush(); err != nil {
		p.logger.Warn().Err(err).Msg("nats flush failed")
	}
	p.nc.Close()
	return nil
}

// Subject returns base.<session id>, with dots in the id replaced so the
// session stays a single subject token.
func Subject(base, sessionID string) string {
	token := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(sessionID)
	if token == "" {
		token = "_"
	}
	return base + "." + token
}
