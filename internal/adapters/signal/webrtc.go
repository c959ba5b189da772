package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
	"github.com/interviewmeet/backend/internal/domain"
)

// handlePeerRelay forwards offer/answer/candidate envelopes between two
// members of the same room, stamping the sender so the receiver knows
// which peer connection it belongs to. The SDP and candidate bodies pass
// through untouched.
func (ctl *Controller) handlePeerRelay(sid core.SessionID, event string, data []byte) {
	var p struct {
		TargetSID core.SessionID `json:"target_sid"`
		RoomID    string         `json:"room_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("bad relay payload")
		return
	}
	if p.TargetSID == "" || p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("event", event).Msg("relay missing target_sid or room_id")
		return
	}

	roomID := domain.RoomID(p.RoomID)
	if _, ok := ctl.Rooms.Member(roomID, sid); !ok {
		log.Warn().Str("module", "signal").
			Str("event", event).Str("sid", string(sid)).
			Msg("relay from non-member dropped")
		return
	}
	if _, ok := ctl.Rooms.Member(roomID, p.TargetSID); !ok {
		log.Warn().Str("module", "signal").
			Str("event", event).Str("target", string(p.TargetSID)).
			Msg("relay target not in room")
		return
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	from, _ := json.Marshal(sid)
	env["from_sid"] = from

	ctl.Emit(p.TargetSID, env)
}
