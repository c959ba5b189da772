// Package analysis owns the lifecycle of server-side media endpoints
// that watch one participant's video each and score it for suspicion.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/app/scoring"
	"github.com/interviewmeet/backend/internal/core"
)

// PeerFactory builds the media connection for one analysis target.
// Injected so tests run without a real WebRTC stack.
type PeerFactory func(target core.SessionID) (core.MediaConnection, error)

type session struct {
	target  core.SessionID
	host    core.SessionID
	mc      core.MediaConnection
	monitor *scoring.Monitor

	// Consumer task handle; set when the video track arrives.
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager keys at most one analysis session per target sid and
// guarantees exactly-once teardown under concurrent triggers.
type Manager struct {
	ctx       context.Context
	newPeer   PeerFactory
	extractor core.FeatureExtractor
	emitter   Emitter

	mu       sync.Mutex
	sessions map[core.SessionID]*session
	cleaning map[core.SessionID]struct{}
}

func NewManager(ctx context.Context, newPeer PeerFactory, extractor core.FeatureExtractor, emitter Emitter) *Manager {
	return &Manager{
		ctx:       ctx,
		newPeer:   newPeer,
		extractor: extractor,
		emitter:   emitter,
		sessions:  make(map[core.SessionID]*session),
		cleaning:  make(map[core.SessionID]struct{}),
	}
}

// Start opens a receive-only peer connection toward target and sends it
// the local offer. host becomes the immutable recipient of every later
// session-scoped notification. No-op when a session already exists.
func (m *Manager) Start(target, host core.SessionID) {
	m.mu.Lock()
	if _, exists := m.sessions[target]; exists {
		m.mu.Unlock()
		log.Warn().Str("module", "analysis").Str("target", string(target)).Msg("analysis already in progress")
		return
	}

	mc, err := m.newPeer(target)
	if err != nil {
		m.mu.Unlock()
		log.Error().Err(err).Str("module", "analysis").Str("target", string(target)).Msg("create peer connection")
		m.emitter.Emit(host, connFailedEvent{Type: "analysis_connection_failed", TargetSID: target})
		return
	}
	sess := &session{target: target, host: host, mc: mc, monitor: scoring.NewMonitor()}
	m.sessions[target] = sess
	m.mu.Unlock()

	mc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		m.emitter.Emit(target, serverCandidateEvent{
			Type:      "server_ice_candidate_for_analysis",
			Candidate: ci,
			TargetSID: target,
		})
	})
	mc.OnTrack(func(trackCtx context.Context, src core.FrameSource) {
		m.onTrack(trackCtx, target, src)
	})

	if err := mc.Start(m.ctx); err != nil {
		m.failNegotiation(sess, err, "start peer connection")
		return
	}
	if err := mc.AddRecvVideoTransceiver(); err != nil {
		m.failNegotiation(sess, err, "add video transceiver")
		return
	}
	offer, err := mc.CreateAndSetOffer()
	if err != nil {
		m.failNegotiation(sess, err, "create offer")
		return
	}

	log.Info().Str("module", "analysis").Str("target", string(target)).
		Str("host", string(host)).Msg("analysis session started, offer sent")
	m.emitter.Emit(target, serverOfferEvent{
		Type:      "server_offer_for_analysis",
		Offer:     sdpPayload{Type: offer.Type.String(), SDP: offer.SDP},
		TargetSID: target,
	})
}

// failNegotiation tears the session down and tells the host the
// connection never came up.
func (m *Manager) failNegotiation(sess *session, err error, step string) {
	log.Error().Err(err).Str("module", "analysis").Str("target", string(sess.target)).Msg(step)
	m.emitter.Emit(sess.host, connFailedEvent{Type: "analysis_connection_failed", TargetSID: sess.target})
	m.cleanup(sess.target)
}

// OnRemoteAnswer applies the target's answer to its pending session.
func (m *Manager) OnRemoteAnswer(target core.SessionID, answer webrtc.SessionDescription) {
	m.mu.Lock()
	sess, ok := m.sessions[target]
	m.mu.Unlock()
	if !ok {
		// The host is unknown without a session record; nothing to notify.
		log.Warn().Str("module", "analysis").Str("target", string(target)).Msg("answer for unknown session")
		return
	}
	if err := sess.mc.ApplyAnswer(answer); err != nil {
		m.failNegotiation(sess, err, "apply remote answer")
		return
	}
	log.Info().Str("module", "analysis").Str("target", string(target)).Msg("remote answer applied")
}

// OnRemoteIceCandidate forwards a trickled candidate from the target.
// A nil candidate is the end-of-candidates signal and is forwarded as
// such, not dropped. from must equal target; anyone else is ignored.
func (m *Manager) OnRemoteIceCandidate(from, target core.SessionID, cand *webrtc.ICECandidateInit) {
	if from != target {
		log.Warn().Str("module", "analysis").Str("from", string(from)).
			Str("target", string(target)).Msg("ice candidate sender mismatch")
		return
	}
	m.mu.Lock()
	sess, ok := m.sessions[target]
	m.mu.Unlock()
	if !ok {
		log.Warn().Str("module", "analysis").Str("target", string(target)).Msg("ice candidate for unknown session")
		return
	}
	if err := sess.mc.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "analysis").Str("target", string(target)).Msg("add ice candidate")
	}
}

// Stop triggers teardown for target. Safe to call whether or not a
// session exists, and safe to call concurrently from any trigger.
func (m *Manager) Stop(target core.SessionID) {
	m.cleanup(target)
}

// HostOf reports the initiating host of an active session.
func (m *Manager) HostOf(target core.SessionID) (core.SessionID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[target]
	if !ok {
		return "", false
	}
	return sess.host, true
}

// onTrack marks the session active and spawns its frame consumer.
func (m *Manager) onTrack(trackCtx context.Context, target core.SessionID, src core.FrameSource) {
	m.mu.Lock()
	sess, ok := m.sessions[target]
	if !ok || sess.cancel != nil {
		m.mu.Unlock()
		log.Warn().Str("module", "analysis").Str("target", string(target)).Msg("track for unknown or already-active session")
		return
	}
	ctx, cancel := context.WithCancel(trackCtx)
	sess.cancel = cancel
	sess.done = make(chan struct{})
	m.mu.Unlock()

	log.Info().Str("module", "analysis").Str("target", string(target)).Msg("video track received, consumer starting")
	m.emitter.Emit(sess.host, connEstablishedEvent{Type: "analysis_connection_established", TargetSID: target})
	go m.consume(ctx, sess, src)
}

// consume pulls frames until cancellation, extractor failure or track
// end. Track end also triggers full session teardown.
func (m *Manager) consume(ctx context.Context, sess *session, src core.FrameSource) {
	defer close(sess.done)
	start := time.Now()
	frames := 0
	defer func() {
		elapsed := time.Since(start).Seconds()
		fps := 0.0
		if elapsed > 0 {
			fps = float64(frames) / elapsed
		}
		log.Info().Str("module", "analysis").Str("target", string(sess.target)).
			Int("frames", frames).Float64("fps", fps).Msg("consumer stopped")
	}()

	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Str("module", "analysis").Str("target", string(sess.target)).Msg("consumer cancelled")
				return
			}
			log.Info().Err(err).Str("module", "analysis").Str("target", string(sess.target)).Msg("track ended")
			go m.cleanup(sess.target)
			return
		}
		feats, err := m.extractor.Extract(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("module", "analysis").Str("target", string(sess.target)).Msg("feature extraction failed")
			return
		}
		sess.monitor.Update(feats.Gaze, feats.Yaw, feats.Pitch)
		frames++
		log.Debug().Str("module", "analysis").Str("target", string(sess.target)).
			Str("status", sess.monitor.AssessStatus()).Msg("frame scored")
	}
}

// cleanup is the only path that removes a session. Concurrent triggers
// for the same target collapse into one execution via the cleaning
// guard set; later calls find no session and return quietly.
func (m *Manager) cleanup(target core.SessionID) {
	m.mu.Lock()
	if _, busy := m.cleaning[target]; busy {
		m.mu.Unlock()
		log.Info().Str("module", "analysis").Str("target", string(target)).Msg("cleanup already in progress")
		return
	}
	m.cleaning[target] = struct{}{}
	sess := m.sessions[target]
	delete(m.sessions, target)
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "analysis").
				Str("target", string(target)).Msg("unexpected error during cleanup")
			if sess != nil && sess.host != "" {
				m.emitter.Emit(sess.host, stoppedForHostEvent{
					Type:            "analysis_stopped_for_host_ui",
					TargetSID:       target,
					ExpectedHostSID: sess.host,
					Error:           true,
				})
			}
		}
		m.mu.Lock()
		delete(m.cleaning, target)
		m.mu.Unlock()
	}()

	if sess == nil {
		log.Debug().Str("module", "analysis").Str("target", string(target)).Msg("cleanup: no session")
		return
	}
	log.Info().Str("module", "analysis").Str("target", string(target)).Msg("cleaning up analysis session")

	if sess.cancel != nil {
		sess.cancel()
		<-sess.done
	}
	conclusion := sess.monitor.FinalConclusion()

	if err := sess.mc.Close(); err != nil {
		log.Error().Err(err).Str("module", "analysis").Str("target", string(target)).Msg("peer connection close")
	}

	m.emitter.Emit(target, stoppedNotificationEvent{Type: "analysis_stopped_notification", TargetSID: target})
	if sess.host != "" {
		m.emitter.Emit(sess.host, finalConclusionEvent{
			Type:            "analysis_final_conclusion",
			AnalyzedSID:     target,
			Conclusion:      conclusion,
			ExpectedHostSID: sess.host,
		})
		m.emitter.Emit(sess.host, stoppedForHostEvent{
			Type:            "analysis_stopped_for_host_ui",
			TargetSID:       target,
			ExpectedHostSID: sess.host,
		})
	}
}
