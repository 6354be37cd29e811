package gateway

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"craps-lite/apps/server/internal/lobby"
	"craps-lite/apps/server/internal/table"
	"craps-lite/codec"
	"craps-lite/craps"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var errNoSession = errors.New("not in a session")

// Connection represents a WebSocket client connection
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Gateway *Gateway

	mu    sync.Mutex
	table *table.Table
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	lobby       *lobby.Lobby
	logger      zerolog.Logger
}

func New(lby *lobby.Lobby, logger zerolog.Logger) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		logger:      logger.With().Str("component", "gateway").Logger(),
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := &Connection{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Gateway: g,
	}
	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.logger.Info().Str("conn", c.ID).Int("total", total).Msg("client connected")

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.logger.Warn().Err(err).Str("conn", c.ID).Msg("read error")
			}
			break
		}
		if messageType == websocket.BinaryMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	req, err := codec.UnmarshalRequest(data)
	if err != nil {
		c.sendError("", "bad_request", err.Error())
		return
	}
	c.Gateway.logger.Debug().Str("conn", c.ID).Str("type", req.Type).Msg("request")

	switch req.Type {
	case codec.RequestCreate:
		c.handleCreate()
	case codec.RequestJoin:
		c.handleJoin(req.SessionID)
	case codec.RequestPlace:
		kind, ok := c.parseBet(req.Bet)
		if !ok {
			return
		}
		c.submit(table.Event{Type: table.EventPlaceBet, Bet: kind, Amount: req.Amount})
	case codec.RequestMove:
		from, ok := c.parseBet(req.From)
		if !ok {
			return
		}
		to, ok := c.parseBet(req.To)
		if !ok {
			return
		}
		c.submit(table.Event{Type: table.EventMoveBet, Bet: from, To: to})
	case codec.RequestClear:
		c.submit(table.Event{Type: table.EventClearBets})
	case codec.RequestRoll:
		c.submit(table.Event{Type: table.EventRoll})
	case codec.RequestWorking:
		c.submit(table.Event{Type: table.EventSetWorking, Working: req.Working})
	case codec.RequestHistory:
		c.submit(table.Event{Type: table.EventHistory, ConnID: c.ID, Limit: int(req.Limit)})
	}
}

func (c *Connection) handleCreate() {
	t, err := c.Gateway.lobby.Create(c.Gateway.sendToConn)
	if err != nil {
		c.sendError("", "internal", err.Error())
		return
	}
	c.attach(t)
}

func (c *Connection) handleJoin(sessionID string) {
	t := c.Gateway.lobby.GetTable(sessionID)
	if t == nil {
		c.sendError(sessionID, "not_found", "session not found")
		return
	}
	c.attach(t)
}

// attach moves the connection to t, leaving any previous session.
func (c *Connection) attach(t *table.Table) {
	c.mu.Lock()
	prev := c.table
	c.table = t
	c.mu.Unlock()

	if prev != nil && prev != t {
		_ = prev.SubmitEvent(table.Event{Type: table.EventLeave, ConnID: c.ID})
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: c.ID}); err != nil {
		c.sendError(t.ID, "internal", err.Error())
		return
	}
	c.Gateway.logger.Info().Str("conn", c.ID).Str("table", t.ID).Msg("joined session")
}

func (c *Connection) currentTable() *table.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

func (c *Connection) parseBet(raw string) (craps.BetKind, bool) {
	kind, err := craps.ParseBetKind(raw)
	if err != nil {
		c.sendError(c.tableID(), craps.KindInvalidBet.String(), err.Error())
		return craps.BetKind{}, false
	}
	return kind, true
}

func (c *Connection) submit(e table.Event) {
	t := c.currentTable()
	if t == nil {
		c.sendError("", "no_session", errNoSession.Error())
		return
	}
	if err := t.SubmitEvent(e); err != nil {
		payload := codec.ErrorPayload(err)
		if errors.Is(err, table.ErrTableClosed) {
			payload["code"] = "session_closed"
		}
		c.sendPayload(t.ID, codec.TypeError, payload)
	}
}

func (c *Connection) tableID() string {
	if t := c.currentTable(); t != nil {
		return t.ID
	}
	return ""
}

func (c *Connection) sendError(tableID, code, msg string) {
	c.sendPayload(tableID, codec.TypeError, map[string]any{
		"code":    code,
		"message": msg,
	})
}

func (c *Connection) sendPayload(tableID, typ string, payload map[string]any) {
	data, err := codec.Marshal(codec.Envelope{
		TableID: tableID,
		TsMs:    time.Now().UnixMilli(),
		Type:    typ,
		Payload: payload,
	})
	if err != nil {
		c.Gateway.logger.Error().Err(err).Msg("marshal error envelope failed")
		return
	}
	c.Gateway.sendToConn(c.ID, data)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	if _, ok := g.connections[c.ID]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.connections, c.ID)
	close(c.Send)
	total := len(g.connections)
	g.mu.Unlock()

	if t := c.currentTable(); t != nil {
		_ = t.SubmitEvent(table.Event{Type: table.EventLeave, ConnID: c.ID})
	}
	g.logger.Info().Str("conn", c.ID).Int("total", total).Msg("client disconnected")
}

// sendToConn queues data for one connection, dropping it if the buffer is full.
func (g *Gateway) sendToConn(connID string, data []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c := g.connections[connID]
	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		g.logger.Warn().Str("conn", connID).Msg("send buffer full, dropping message")
	}
}
