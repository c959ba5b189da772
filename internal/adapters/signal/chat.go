package signal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
	"github.com/interviewmeet/backend/internal/domain"
)

type newMessageEvent struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Kind       string         `json:"message_type"`
	SenderSID  core.SessionID `json:"sender_sid"`
	SenderName string         `json:"sender_name"`
	Text       string         `json:"text"`
	Timestamp  float64        `json:"timestamp"`
}

func chatMessage(kind string, sender core.SessionID, name, text string) newMessageEvent {
	return newMessageEvent{
		Type:       "new_message",
		ID:         uuid.NewString(),
		Kind:       kind,
		SenderSID:  sender,
		SenderName: name,
		Text:       text,
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
	}
}

func (ctl *Controller) handleSendMessage(sid core.SessionID, data []byte) {
	var p struct {
		Type        string `json:"type"`
		RoomID      string `json:"room_id"`
		MessageText string `json:"message_text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send_message payload")
		return
	}
	if p.RoomID == "" || p.MessageText == "" {
		return
	}

	roomID := domain.RoomID(p.RoomID)
	sender, ok := ctl.Rooms.Member(roomID, sid)
	if !ok {
		log.Warn().Str("module", "signal").
			Str("sid", string(sid)).Str("room", p.RoomID).
			Msg("send_message from non-member dropped")
		return
	}

	ctl.emitEach(ctl.Rooms.Participants(roomID), chatMessage("user", sid, sender.Name, p.MessageText))
}

// broadcastSystemMessage posts a server-authored chat line to the given
// participants.
func (ctl *Controller) broadcastSystemMessage(to []core.Participant, text string) {
	ctl.emitEach(to, chatMessage("system", "system", "System", text))
}
