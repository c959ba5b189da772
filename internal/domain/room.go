// Package domain contains entities without logic, just meta-data.
package domain

import "github.com/interviewmeet/backend/internal/core"

type RoomID string

// PendingRequest is an unresolved knock on a locked room.
type PendingRequest struct {
	SID  core.SessionID
	Name string
}

// Room is one meeting: its members, its creator and its admission state.
// Creator never changes for the room's lifetime.
type Room struct {
	ID           RoomID
	Creator      core.SessionID
	Locked       bool
	Participants map[core.SessionID]*core.Participant
	Pending      map[core.SessionID]*PendingRequest
}

func NewRoom(id RoomID, creator core.SessionID, locked bool) *Room {
	return &Room{
		ID:           id,
		Creator:      creator,
		Locked:       locked,
		Participants: make(map[core.SessionID]*core.Participant),
		Pending:      make(map[core.SessionID]*PendingRequest),
	}
}

// Roster returns a copy of the participant list.
func (r *Room) Roster() []core.Participant {
	out := make([]core.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		out = append(out, *p)
	}
	return out
}

// RosterExcluding returns the roster without the given member. Clients
// use it to know which peers to dial.
func (r *Room) RosterExcluding(sid core.SessionID) []core.Participant {
	out := make([]core.Participant, 0, len(r.Participants))
	for id, p := range r.Participants {
		if id == sid {
			continue
		}
		out = append(out, *p)
	}
	return out
}
