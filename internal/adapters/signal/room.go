package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/app"
	"github.com/interviewmeet/backend/internal/core"
	"github.com/interviewmeet/backend/internal/domain"
)

type roomJoinedEvent struct {
	Type              string             `json:"type"`
	RoomID            domain.RoomID      `json:"room_id"`
	SID               core.SessionID     `json:"sid"`
	Name              string             `json:"name"`
	AllParticipants   []core.Participant `json:"allParticipants"`
	OtherParticipants []core.Participant `json:"otherParticipants"`
	CreatorSID        core.SessionID     `json:"creator_sid"`
}

type newUserJoinedEvent struct {
	Type            string             `json:"type"`
	SID             core.SessionID     `json:"sid"`
	Name            string             `json:"name"`
	AllParticipants []core.Participant `json:"allParticipants"`
}

type waitingForApprovalEvent struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"room_id"`
	Message string        `json:"message"`
}

type joinRequestReceivedEvent struct {
	Type          string         `json:"type"`
	RequesterSID  core.SessionID `json:"requester_sid"`
	RequesterName string         `json:"requester_name"`
	RoomID        domain.RoomID  `json:"room_id"`
}

type joinRequestProcessedEvent struct {
	Type         string         `json:"type"`
	RequesterSID core.SessionID `json:"requester_sid"`
	RoomID       domain.RoomID  `json:"room_id"`
	Decision     string         `json:"decision"`
}

type admissionDeniedEvent struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"room_id"`
	Message string        `json:"message"`
}

type roomNoticeEvent struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"room_id"`
	Message string        `json:"message"`
}

type userLeftEvent struct {
	Type            string             `json:"type"`
	SID             core.SessionID     `json:"sid"`
	Name            string             `json:"name"`
	Room            domain.RoomID      `json:"room"`
	AllParticipants []core.Participant `json:"allParticipants"`
}

func (ctl *Controller) handleJoinRoom(sid core.SessionID, data []byte) {
	var p struct {
		Type         string `json:"type"`
		RoomID       string `json:"room_id"`
		UserName     string `json:"userName"`
		CreateLocked bool   `json:"create_locked_room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_room payload")
		return
	}
	if p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join_room without room_id")
		return
	}
	if p.UserName == "" {
		p.UserName = fmt.Sprintf("User (%s)", sid.Short())
	}

	out := ctl.Rooms.Join(domain.RoomID(p.RoomID), sid, p.UserName, p.CreateLocked)
	switch out.Status {
	case app.JoinStillPending:
		ctl.Emit(sid, waitingForApprovalEvent{
			Type:    "waiting_for_approval",
			RoomID:  out.RoomID,
			Message: "You are still awaiting approval.",
		})
	case app.JoinRequested:
		ctl.Emit(out.Creator, joinRequestReceivedEvent{
			Type:          "join_request_received",
			RequesterSID:  sid,
			RequesterName: out.Name,
			RoomID:        out.RoomID,
		})
		ctl.Emit(sid, waitingForApprovalEvent{
			Type:    "waiting_for_approval",
			RoomID:  out.RoomID,
			Message: "Your request to join has been sent to the host.",
		})
	case app.JoinJoined:
		ctl.Emit(sid, roomJoinedEvent{
			Type:              "room_joined",
			RoomID:            out.RoomID,
			SID:               sid,
			Name:              out.Name,
			AllParticipants:   out.All,
			OtherParticipants: out.Others,
			CreatorSID:        out.Creator,
		})
		ctl.emitEach(out.Others, newUserJoinedEvent{
			Type:            "new_user_joined",
			SID:             sid,
			Name:            out.Name,
			AllParticipants: out.All,
		})
	}
}

func (ctl *Controller) handleAdmissionDecision(sid core.SessionID, data []byte) {
	var p struct {
		Type         string         `json:"type"`
		RoomID       string         `json:"room_id"`
		RequesterSID core.SessionID `json:"requester_sid"`
		Decision     string         `json:"decision"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad admission_decision payload")
		return
	}
	if p.RoomID == "" || p.RequesterSID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("admission_decision missing fields")
		return
	}
	if p.Decision != "accept" && p.Decision != "deny" {
		log.Warn().Str("module", "signal").Str("decision", p.Decision).Msg("unknown admission decision")
		return
	}

	roomID := domain.RoomID(p.RoomID)
	out := ctl.Rooms.Decide(sid, roomID, p.RequesterSID, p.Decision == "accept")
	if !out.OK {
		return
	}

	if out.Accepted {
		ctl.Emit(p.RequesterSID, roomJoinedEvent{
			Type:              "admission_approved",
			RoomID:            roomID,
			SID:               p.RequesterSID,
			Name:              out.RequesterName,
			AllParticipants:   out.All,
			OtherParticipants: out.Others,
			CreatorSID:        out.Creator,
		})
		ctl.emitEach(out.Others, newUserJoinedEvent{
			Type:            "new_user_joined",
			SID:             p.RequesterSID,
			Name:            out.RequesterName,
			AllParticipants: out.All,
		})
		ctl.broadcastSystemMessage(out.All, fmt.Sprintf("%s has joined the meeting.", out.RequesterName))
	} else {
		ctl.Emit(p.RequesterSID, admissionDeniedEvent{
			Type:    "admission_denied",
			RoomID:  roomID,
			Message: "Your request to join the room was denied.",
		})
	}

	ctl.Emit(sid, joinRequestProcessedEvent{
		Type:         "join_request_processed",
		RequesterSID: p.RequesterSID,
		RoomID:       roomID,
		Decision:     p.Decision,
	})
}

func (ctl *Controller) handleHostEndMeeting(sid core.SessionID, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad host_ended_meeting_request payload")
		return
	}
	if p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("host_ended_meeting_request without room_id")
		return
	}

	out := ctl.Rooms.EndByHost(sid, domain.RoomID(p.RoomID))
	if !out.OK {
		return
	}
	ctl.emitEach(out.Participants, roomNoticeEvent{
		Type:    "meeting_ended_by_host",
		RoomID:  domain.RoomID(p.RoomID),
		Message: "The host has ended the meeting.",
	})
	for _, member := range out.Participants {
		if member.SID != sid {
			ctl.Analysis.Stop(member.SID)
		}
	}
}

// onDisconnect runs once per connection when its read pump exits.
func (ctl *Controller) onDisconnect(sid core.SessionID) {
	out := ctl.Rooms.Leave(sid)
	switch out.Status {
	case app.LeaveHostLeft:
		for _, p := range out.Others {
			ctl.Emit(p.SID, roomNoticeEvent{
				Type:    "host_left_abruptly",
				RoomID:  out.RoomID,
				Message: "The host has disconnected abruptly. The meeting will now end.",
			})
			// Any analysis the host was running on this participant ends
			// with the meeting.
			ctl.Analysis.Stop(p.SID)
		}
	case app.LeaveParticipantLeft:
		ctl.emitEach(out.Others, userLeftEvent{
			Type:            "user_left",
			SID:             sid,
			Name:            out.Name,
			Room:            out.RoomID,
			AllParticipants: out.Others,
		})
		ctl.broadcastSystemMessage(out.Others, fmt.Sprintf("%s has left the meeting.", out.Name))
	}

	// The leaver may itself be under analysis.
	ctl.Analysis.Stop(sid)
	ctl.Conns.Cancel(sid)
	ctl.Conns.Unbind(sid)
}
