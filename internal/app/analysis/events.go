package analysis

import (
	"github.com/pion/webrtc/v4"

	"github.com/interviewmeet/backend/internal/app/scoring"
	"github.com/interviewmeet/backend/internal/core"
)

// Emitter delivers one outbound protocol event to one endpoint. The
// payload carries its own "type" tag; the signal adapter just frames
// and sends it.
type Emitter interface {
	Emit(to core.SessionID, event any)
}

type sdpPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type serverOfferEvent struct {
	Type      string         `json:"type"`
	Offer     sdpPayload     `json:"offer"`
	TargetSID core.SessionID `json:"analysis_target_sid"`
}

type serverCandidateEvent struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	TargetSID core.SessionID          `json:"analysis_target_sid"`
}

type connEstablishedEvent struct {
	Type      string         `json:"type"`
	TargetSID core.SessionID `json:"target_sid"`
}

type connFailedEvent struct {
	Type      string         `json:"type"`
	TargetSID core.SessionID `json:"target_sid"`
}

type stoppedNotificationEvent struct {
	Type      string         `json:"type"`
	TargetSID core.SessionID `json:"target_sid"`
}

type finalConclusionEvent struct {
	Type            string             `json:"type"`
	AnalyzedSID     core.SessionID     `json:"analyzed_sid"`
	Conclusion      scoring.Conclusion `json:"conclusion"`
	ExpectedHostSID core.SessionID     `json:"expected_host_sid"`
}

type stoppedForHostEvent struct {
	Type            string         `json:"type"`
	TargetSID       core.SessionID `json:"target_sid"`
	ExpectedHostSID core.SessionID `json:"expected_host_sid"`
	Error           bool           `json:"error,omitempty"`
}
