package app

import (
	"testing"

	"github.com/interviewmeet/backend/internal/core"
	"github.com/interviewmeet/backend/internal/domain"
)

func rosterHas(ps []core.Participant, sid core.SessionID) bool {
	for _, p := range ps {
		if p.SID == sid {
			return true
		}
	}
	return false
}

func TestJoinCreatesRoomWithCreator(t *testing.T) {
	r := NewRoomRegistry()

	out := r.Join("room1", "alice", "Alice", false)
	if out.Status != JoinJoined {
		t.Fatalf("expected JoinJoined, got %v", out.Status)
	}
	if out.Creator != "alice" {
		t.Errorf("creator = %q, want alice", out.Creator)
	}
	if len(out.All) != 1 || out.All[0].Name != "Alice" {
		t.Errorf("unexpected roster: %v", out.All)
	}
	if len(out.Others) != 0 {
		t.Errorf("expected empty others, got %v", out.Others)
	}
}

func TestJoinOpenRoomSecondParticipant(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)

	out := r.Join("room1", "bob", "Bob", false)
	if out.Status != JoinJoined {
		t.Fatalf("expected JoinJoined, got %v", out.Status)
	}
	if out.Creator != "alice" {
		t.Errorf("creator = %q, want alice", out.Creator)
	}
	if len(out.All) != 2 {
		t.Errorf("roster size = %d, want 2", len(out.All))
	}
	if len(out.Others) != 1 || out.Others[0].SID != "alice" {
		t.Errorf("others = %v, want just alice", out.Others)
	}
}

func TestLockedRoomQueuesJoin(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)

	out := r.Join("room1", "bob", "Bob", false)
	if out.Status != JoinRequested {
		t.Fatalf("expected JoinRequested, got %v", out.Status)
	}
	if out.Creator != "alice" {
		t.Errorf("creator = %q, want alice", out.Creator)
	}

	// Knocking again while still pending must not duplicate the request.
	again := r.Join("room1", "bob", "Bob", false)
	if again.Status != JoinStillPending {
		t.Fatalf("expected JoinStillPending, got %v", again.Status)
	}

	if _, ok := r.Member("room1", "bob"); ok {
		t.Error("pending requester must not be a member")
	}
}

func TestLockedRoomCreatorRejoins(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)

	out := r.Join("room1", "alice", "Alice", false)
	if out.Status != JoinJoined {
		t.Fatalf("creator must never be queued, got %v", out.Status)
	}
}

func TestDecideAccept(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)
	r.Join("room1", "bob", "Bob", false)

	out := r.Decide("alice", "room1", "bob", true)
	if !out.OK || !out.Accepted {
		t.Fatalf("expected accepted decision, got %+v", out)
	}
	if out.RequesterName != "Bob" {
		t.Errorf("requester name = %q, want Bob", out.RequesterName)
	}
	if !rosterHas(out.All, "bob") || !rosterHas(out.All, "alice") {
		t.Errorf("roster missing members: %v", out.All)
	}
	if rosterHas(out.Others, "bob") {
		t.Errorf("others must exclude requester: %v", out.Others)
	}
	if _, ok := r.Member("room1", "bob"); !ok {
		t.Error("accepted requester must be a member")
	}
}

func TestDecideDeny(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)
	r.Join("room1", "bob", "Bob", false)

	out := r.Decide("alice", "room1", "bob", false)
	if !out.OK || out.Accepted {
		t.Fatalf("expected denied decision, got %+v", out)
	}
	if _, ok := r.Member("room1", "bob"); ok {
		t.Error("denied requester must not be a member")
	}

	// The request is consumed either way; a second decision is a no-op.
	if again := r.Decide("alice", "room1", "bob", true); again.OK {
		t.Error("second decision for same requester must be a no-op")
	}
}

func TestDecideUnauthorized(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)
	r.Join("room1", "bob", "Bob", false)
	r.Decide("alice", "room1", "bob", true)
	r.Join("room1", "carol", "Carol", false)

	if out := r.Decide("bob", "room1", "carol", true); out.OK {
		t.Error("non-creator decision must be rejected")
	}
	if _, ok := r.Member("room1", "carol"); ok {
		t.Error("carol must still be pending")
	}
	if out := r.Decide("alice", "room1", "carol", true); !out.OK {
		t.Error("creator decision must still work after rejected attempt")
	}
}

func TestLeaveParticipant(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)
	r.Join("room1", "bob", "Bob", false)

	out := r.Leave("bob")
	if out.Status != LeaveParticipantLeft {
		t.Fatalf("expected LeaveParticipantLeft, got %v", out.Status)
	}
	if out.Name != "Bob" || out.RoomID != "room1" {
		t.Errorf("outcome = %+v", out)
	}
	if len(out.Others) != 1 || out.Others[0].SID != "alice" {
		t.Errorf("others = %v, want just alice", out.Others)
	}
	if out.RoomClosed {
		t.Error("room must survive a non-creator leave")
	}
}

func TestLeaveHostClosesRoom(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)
	r.Join("room1", "bob", "Bob", false)

	out := r.Leave("alice")
	if out.Status != LeaveHostLeft {
		t.Fatalf("expected LeaveHostLeft, got %v", out.Status)
	}
	if !out.RoomClosed {
		t.Error("room must close when host leaves")
	}
	if len(out.Others) != 1 || out.Others[0].SID != "bob" {
		t.Errorf("survivors = %v, want just bob", out.Others)
	}
	if _, ok := r.Member("room1", "bob"); ok {
		t.Error("closed room must drop all membership")
	}
}

func TestLeaveLastParticipantRemovesRoom(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)
	r.Join("room1", "bob", "Bob", false)
	r.Leave("alice")

	// alice leaving closed the room already; bob in a fresh room.
	r.Join("room2", "carol", "Carol", false)
	r.Join("room2", "dave", "Dave", false)
	r.Leave("dave")
	out := r.Leave("carol")
	if out.Status != LeaveHostLeft || !out.RoomClosed {
		t.Fatalf("expected host leave with closed room, got %+v", out)
	}
	if len(r.List()) != 0 {
		t.Errorf("no rooms should remain, got %v", r.List())
	}
}

func TestLeaveDropsPendingRequest(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", true)
	r.Join("room1", "bob", "Bob", false)

	out := r.Leave("bob")
	if out.Status != LeaveNotInRoom {
		t.Fatalf("pending leaver is not in the room, got %v", out.Status)
	}
	if d := r.Decide("alice", "room1", "bob", true); d.OK {
		t.Error("request must be gone after the requester disconnects")
	}
}

func TestLeaveUnknownSession(t *testing.T) {
	r := NewRoomRegistry()
	if out := r.Leave("ghost"); out.Status != LeaveNotInRoom {
		t.Errorf("expected LeaveNotInRoom, got %v", out.Status)
	}
}

func TestEndByHost(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)
	r.Join("room1", "bob", "Bob", false)

	if out := r.EndByHost("bob", "room1"); out.OK {
		t.Error("non-creator must not end the meeting")
	}

	out := r.EndByHost("alice", "room1")
	if !out.OK {
		t.Fatal("creator end request refused")
	}
	if len(out.Participants) != 2 {
		t.Errorf("participants to notify = %v, want both", out.Participants)
	}
	if len(r.List()) != 0 {
		t.Error("room must be gone after host ends it")
	}
}

func TestRoomContaining(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("room1", "alice", "Alice", false)
	r.Join("room1", "bob", "Bob", false)

	roomID, creator, ok := r.RoomContaining("bob")
	if !ok || roomID != "room1" || creator != "alice" {
		t.Errorf("got (%q, %q, %v)", roomID, creator, ok)
	}
	if _, _, ok := r.RoomContaining("ghost"); ok {
		t.Error("unknown session must not resolve to a room")
	}
}

func TestList(t *testing.T) {
	r := NewRoomRegistry()
	r.Join("open", "alice", "Alice", false)
	r.Join("locked", "bob", "Bob", true)
	r.Join("locked", "carol", "Carol", false) // pending, not counted

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("got %d rooms, want 2", len(infos))
	}
	byID := map[domain.RoomID]RoomInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	if info := byID["open"]; info.Locked || info.ParticipantCount != 1 {
		t.Errorf("open room info = %+v", info)
	}
	if info := byID["locked"]; !info.Locked || info.ParticipantCount != 1 {
		t.Errorf("locked room info = %+v", info)
	}
}
