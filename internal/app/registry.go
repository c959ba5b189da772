package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
)

type connEntry struct {
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// ConnRegistry maps live session ids to their signal connections.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[core.SessionID]*connEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[core.SessionID]*connEntry)}
}

func (r *ConnRegistry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *ConnRegistry) Get(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *ConnRegistry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind signal")
}

// Cancel fires the connection-scoped context, tearing down the pumps.
func (r *ConnRegistry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
