// Package signal is the event-handling layer between the websocket
// transport and the room/analysis state: it interprets inbound protocol
// messages, mutates registry and session state, and emits outbound
// messages to one or more connected endpoints.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/app"
	"github.com/interviewmeet/backend/internal/app/analysis"
	"github.com/interviewmeet/backend/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Ctx      context.Context
	Conns    *app.ConnRegistry
	Rooms    *app.RoomRegistry
	Analysis *analysis.Manager
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection's pumps.
// Each connection gets a fresh endpoint id for its lifetime.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("client_token", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Conns.Bind(sid, conn, cancel)

	ctl.sendJSON(conn, connectionSuccessEvent{
		Type:    "connection_success",
		Message: "Successfully connected!",
		SID:     sid,
	})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

type connectionSuccessEvent struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	SID     core.SessionID `json:"sid"`
}

// Emit implements analysis.Emitter: deliver one event to one endpoint.
func (ctl *Controller) Emit(to core.SessionID, v any) {
	conn, ok := ctl.Conns.Get(to)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(to)).Msg("emit to unknown session")
		return
	}
	ctl.sendJSON(conn, v)
}

// emitEach delivers one event to every listed participant.
func (ctl *Controller) emitEach(to []core.Participant, v any) {
	for _, p := range to {
		ctl.Emit(p.SID, v)
	}
}
