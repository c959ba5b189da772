package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// FrameSource is a pull-based stream of decoded video frames from one
// remote track. Next blocks until a frame is available, the source ends
// (io.EOF or a transport error) or ctx is cancelled.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// MediaConnection is the server-side peer connection used for analysis
// sessions. The manager drives it only through this contract.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// AddRecvVideoTransceiver registers a receive-only video transceiver
	// so the local offer requests the remote camera track.
	AddRecvVideoTransceiver() error
	// CreateAndSetOffer generates the local offer and applies it.
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	// ApplyAnswer applies the remote answer.
	ApplyAnswer(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate. A nil candidate
	// signals end-of-candidates and must be forwarded as such.
	AddICECandidate(*webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback invoked when the remote video track arrives.
	OnTrack(func(ctx context.Context, src FrameSource))
	// Close stops all underlying media resources.
	Close() error
}
