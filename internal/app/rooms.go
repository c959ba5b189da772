package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
	"github.com/interviewmeet/backend/internal/domain"
)

type JoinStatus int

const (
	// JoinJoined: the caller is now a participant.
	JoinJoined JoinStatus = iota
	// JoinRequested: first knock on a locked room, host must decide.
	JoinRequested
	// JoinStillPending: repeated knock while an earlier one is unresolved.
	JoinStillPending
)

type JoinOutcome struct {
	Status  JoinStatus
	RoomID  domain.RoomID
	Creator core.SessionID
	Name    string
	All     []core.Participant
	Others  []core.Participant
}

type DecisionOutcome struct {
	OK            bool
	Accepted      bool
	RequesterName string
	Creator       core.SessionID
	All           []core.Participant
	Others        []core.Participant
}

type LeaveStatus int

const (
	LeaveNotInRoom LeaveStatus = iota
	LeaveHostLeft
	LeaveParticipantLeft
)

type LeaveOutcome struct {
	Status LeaveStatus
	RoomID domain.RoomID
	Name   string
	// Others holds the survivors: everyone to notify after the leaver is
	// already removed.
	Others     []core.Participant
	RoomClosed bool
}

type EndOutcome struct {
	OK           bool
	Participants []core.Participant
}

type RoomInfo struct {
	ID               domain.RoomID `json:"id"`
	ParticipantCount int           `json:"participant_count"`
	Locked           bool          `json:"locked"`
}

// RoomRegistry owns room membership, lock/approval state and host
// identity. Every operation is a run-to-completion mutation under one
// lock, so callers observe rooms atomically.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*domain.Room)}
}

// Join admits sid into the room, creating it (with sid as creator and
// the requested lock flag) when it does not exist. On a locked room a
// non-member lands in the pending queue instead.
func (r *RoomRegistry) Join(roomID domain.RoomID, sid core.SessionID, name string, createLocked bool) JoinOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = domain.NewRoom(roomID, sid, createLocked)
		r.rooms[roomID] = room
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).
			Str("creator", string(sid)).Bool("locked", createLocked).Msg("room created")
	}

	_, isMember := room.Participants[sid]
	if room.Locked && sid != room.Creator && !isMember {
		if _, pending := room.Pending[sid]; pending {
			log.Info().Str("module", "app.rooms").Str("sid", string(sid)).
				Str("room", string(roomID)).Msg("join while still pending")
			return JoinOutcome{Status: JoinStillPending, RoomID: roomID, Creator: room.Creator, Name: name}
		}
		room.Pending[sid] = &domain.PendingRequest{SID: sid, Name: name}
		log.Info().Str("module", "app.rooms").Str("sid", string(sid)).
			Str("room", string(roomID)).Msg("join request queued for locked room")
		return JoinOutcome{Status: JoinRequested, RoomID: roomID, Creator: room.Creator, Name: name}
	}

	room.Participants[sid] = &core.Participant{SID: sid, Name: name}
	log.Info().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(roomID)).
		Int("participants", len(room.Participants)).Msg("participant joined")
	return JoinOutcome{
		Status:  JoinJoined,
		RoomID:  roomID,
		Creator: room.Creator,
		Name:    name,
		All:     room.Roster(),
		Others:  room.RosterExcluding(sid),
	}
}

// Decide resolves a pending request. It is a silent no-op unless the
// room exists, host is its creator and the requester is actually
// pending, so a second decision for the same requester does nothing.
func (r *RoomRegistry) Decide(host core.SessionID, roomID domain.RoomID, requester core.SessionID, accept bool) DecisionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		log.Warn().Str("module", "app.rooms").Str("room", string(roomID)).Msg("decision for unknown room")
		return DecisionOutcome{}
	}
	if host != room.Creator {
		log.Warn().Str("module", "app.rooms").Str("sid", string(host)).
			Str("room", string(roomID)).Msg("unauthorized admission decision")
		return DecisionOutcome{}
	}
	req, ok := room.Pending[requester]
	if !ok {
		log.Warn().Str("module", "app.rooms").Str("requester", string(requester)).
			Str("room", string(roomID)).Msg("decision for unknown pending request")
		return DecisionOutcome{}
	}
	delete(room.Pending, requester)

	out := DecisionOutcome{OK: true, Accepted: accept, RequesterName: req.Name, Creator: room.Creator}
	if accept {
		room.Participants[requester] = &core.Participant{SID: requester, Name: req.Name}
		out.All = room.Roster()
		out.Others = room.RosterExcluding(requester)
		log.Info().Str("module", "app.rooms").Str("requester", string(requester)).
			Str("room", string(roomID)).Msg("admission accepted")
	} else {
		log.Info().Str("module", "app.rooms").Str("requester", string(requester)).
			Str("room", string(roomID)).Msg("admission denied")
	}
	return out
}

// Leave removes sid from whatever room holds it. When the creator
// leaves the room is destroyed and the outcome carries everyone left to
// notify; otherwise the outcome carries the updated roster. An
// unresolved pending request from sid is dropped silently.
func (r *RoomRegistry) Leave(sid core.SessionID) LeaveOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, room := range r.rooms {
		if p, ok := room.Participants[sid]; ok {
			delete(room.Participants, sid)
			if sid == room.Creator {
				delete(r.rooms, id)
				log.Info().Str("module", "app.rooms").Str("room", string(id)).
					Str("sid", string(sid)).Msg("host left, room closed")
				return LeaveOutcome{
					Status:     LeaveHostLeft,
					RoomID:     id,
					Name:       p.Name,
					Others:     room.Roster(),
					RoomClosed: true,
				}
			}
			out := LeaveOutcome{Status: LeaveParticipantLeft, RoomID: id, Name: p.Name, Others: room.Roster()}
			if len(room.Participants) == 0 {
				delete(r.rooms, id)
				out.RoomClosed = true
				log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room empty, removed")
			}
			log.Info().Str("module", "app.rooms").Str("room", string(id)).
				Str("sid", string(sid)).Msg("participant left")
			return out
		}
		if _, ok := room.Pending[sid]; ok {
			delete(room.Pending, sid)
			log.Info().Str("module", "app.rooms").Str("room", string(id)).
				Str("sid", string(sid)).Msg("pending request dropped on leave")
			return LeaveOutcome{Status: LeaveNotInRoom}
		}
	}
	return LeaveOutcome{Status: LeaveNotInRoom}
}

// EndByHost destroys the room on the creator's request. Silent no-op
// for anyone else.
func (r *RoomRegistry) EndByHost(host core.SessionID, roomID domain.RoomID) EndOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		log.Warn().Str("module", "app.rooms").Str("room", string(roomID)).Msg("end request for unknown room")
		return EndOutcome{}
	}
	if host != room.Creator {
		log.Warn().Str("module", "app.rooms").Str("sid", string(host)).
			Str("room", string(roomID)).Msg("unauthorized end request")
		return EndOutcome{}
	}
	delete(r.rooms, roomID)
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room ended by host")
	return EndOutcome{OK: true, Participants: room.Roster()}
}

// Member returns the participant record for sid in roomID, if any.
func (r *RoomRegistry) Member(roomID domain.RoomID, sid core.SessionID) (core.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return core.Participant{}, false
	}
	p, ok := room.Participants[sid]
	if !ok {
		return core.Participant{}, false
	}
	return *p, true
}

// Participants returns the roster of roomID.
func (r *RoomRegistry) Participants(roomID domain.RoomID) []core.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.Roster()
}

// RoomContaining locates the room sid participates in and reports its
// creator.
func (r *RoomRegistry) RoomContaining(sid core.SessionID) (domain.RoomID, core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, room := range r.rooms {
		if _, ok := room.Participants[sid]; ok {
			return id, room.Creator, true
		}
	}
	return "", "", false
}

func (r *RoomRegistry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{ID: id, ParticipantCount: len(room.Participants), Locked: room.Locked})
	}
	return out
}
