package core

// Frame is a raw binary payload.
type Frame []byte

// SessionID identifies one live transport connection. It is only
// meaningful while that connection is open.
type SessionID string

// Short returns a log-friendly prefix of the id.
func (s SessionID) Short() string {
	if len(s) <= 6 {
		return string(s)
	}
	return string(s[:6])
}

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Participant is the read-only roster view sent to clients.
type Participant struct {
	SID  SessionID `json:"id"`
	Name string    `json:"name"`
}
