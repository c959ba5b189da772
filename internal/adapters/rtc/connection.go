// Package rtc implements core.MediaConnection over pion/webrtc.
package rtc

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/interviewmeet/backend/internal/core"
)

type Connection struct {
	pc     *webrtc.PeerConnection
	sid    core.SessionID
	onICE  func(webrtc.ICECandidateInit)
	cancel context.CancelFunc

	onTrack func(ctx context.Context, src core.FrameSource)
}

// ConfigWithSTUN builds the pion configuration from a list of STUN
// urls, falling back to Google's public server when the list is empty.
func ConfigWithSTUN(urls []string) webrtc.Configuration {
	if len(urls) == 0 {
		urls = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: urls}},
	}
}

func NewConnection(cfg webrtc.Configuration, sid core.SessionID) (*Connection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &Connection{pc: pc, sid: sid}, nil
}

func (c *Connection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("sid", string(c.sid)).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateDisconnected ||
			s == webrtc.ICEConnectionStateFailed ||
			s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.onICE != nil {
			c.onICE(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("sid", string(c.sid)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("OnTrack received")
		if track.Kind() != webrtc.RTPCodecTypeVideo {
			return
		}
		if c.onTrack != nil {
			c.onTrack(ctx, newTrackFrameSource(track))
		}
	})

	return nil
}

func (c *Connection) AddRecvVideoTransceiver() error {
	_, err := c.pc.AddTransceiverFromKind(
		webrtc.RTPCodecTypeVideo,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly},
	)
	return err
}

// CreateAndSetOffer generates and applies the local offer. Candidates
// trickle through OnICECandidate afterwards.
func (c *Connection) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	return c.pc.LocalDescription(), nil
}

func (c *Connection) ApplyAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

// AddICECandidate applies a remote candidate; nil means the remote is
// done gathering, which pion expects as an empty candidate.
func (c *Connection) AddICECandidate(ci *webrtc.ICECandidateInit) error {
	if ci == nil {
		return c.pc.AddICECandidate(webrtc.ICECandidateInit{})
	}
	return c.pc.AddICECandidate(*ci)
}

func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.onICE = fn
}

// OnTrack sets the application-level callback for the remote video track.
func (c *Connection) OnTrack(fn func(ctx context.Context, src core.FrameSource)) {
	c.onTrack = fn
}

func (c *Connection) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pc == nil {
		return nil
	}
	return c.pc.Close()
}
