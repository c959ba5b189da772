package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
)

func (ctl *Controller) handleStartAnalysis(sid core.SessionID, data []byte) {
	var p struct {
		Type              string         `json:"type"`
		TargetSID         core.SessionID `json:"target_sid"`
		RequestingHostSID core.SessionID `json:"requesting_host_sid"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad start_analysis_request payload")
		return
	}
	if p.TargetSID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("start_analysis_request without target_sid")
		return
	}
	host := p.RequestingHostSID
	if host == "" {
		host = sid
	}

	roomID, creator, ok := ctl.Rooms.RoomContaining(p.TargetSID)
	if !ok {
		log.Warn().Str("module", "signal").
			Str("target", string(p.TargetSID)).
			Msg("analysis target not in any room")
		return
	}
	if creator != sid {
		log.Warn().Str("module", "signal").
			Str("sid", string(sid)).Str("room", string(roomID)).
			Msg("start_analysis_request from non-host dropped")
		return
	}
	if p.TargetSID == sid {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("host cannot analyze itself")
		return
	}

	ctl.Analysis.Start(p.TargetSID, host)
}

func (ctl *Controller) handleClientAnswer(sid core.SessionID, data []byte) {
	var p struct {
		Type   string `json:"type"`
		Answer struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad client_answer_for_analysis payload")
		return
	}
	if p.Answer.SDP == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("client answer missing sdp")
		return
	}

	ctl.Analysis.OnRemoteAnswer(sid, webrtc.SessionDescription{
		Type: webrtc.NewSDPType(p.Answer.Type),
		SDP:  p.Answer.SDP,
	})
}

func (ctl *Controller) handleClientICECandidate(sid core.SessionID, data []byte) {
	var p struct {
		Type              string          `json:"type"`
		AnalysisTargetSID core.SessionID  `json:"analysis_target_sid"`
		Candidate         json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad client_ice_candidate_for_analysis payload")
		return
	}
	target := p.AnalysisTargetSID
	if target == "" {
		target = sid
	}

	// A null candidate is the end-of-candidates marker and is forwarded
	// as such rather than dropped.
	var cand *webrtc.ICECandidateInit
	if len(p.Candidate) > 0 && string(p.Candidate) != "null" {
		cand = new(webrtc.ICECandidateInit)
		if err := json.Unmarshal(p.Candidate, cand); err != nil {
			log.Warn().Err(err).Str("module", "signal").Msg("unparseable client ICE candidate")
			return
		}
	}

	ctl.Analysis.OnRemoteIceCandidate(sid, target, cand)
}

func (ctl *Controller) handleStopAnalysis(sid core.SessionID, data []byte) {
	var p struct {
		Type      string         `json:"type"`
		TargetSID core.SessionID `json:"target_sid"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad stop_analysis_request payload")
		return
	}
	if p.TargetSID == "" {
		return
	}

	// Only the host that started the session may stop it.
	host, ok := ctl.Analysis.HostOf(p.TargetSID)
	if !ok {
		return
	}
	if host != sid {
		log.Warn().Str("module", "signal").
			Str("sid", string(sid)).Str("target", string(p.TargetSID)).
			Msg("stop_analysis_request from non-owner dropped")
		return
	}

	ctl.Analysis.Stop(p.TargetSID)
}
