package rtc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/interviewmeet/backend/internal/core"
)

// trackFrameSource adapts a remote track to the pull-based FrameSource
// contract. Reads use a short deadline so cancellation is observed even
// while the remote has gone quiet.
type trackFrameSource struct {
	track *webrtc.TrackRemote
}

func newTrackFrameSource(track *webrtc.TrackRemote) *trackFrameSource {
	return &trackFrameSource{track: track}
}

func (s *trackFrameSource) Next(ctx context.Context) (core.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = s.track.SetReadDeadline(time.Now().Add(time.Second))
		pkt, _, err := s.track.ReadRTP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return nil, err
		}
		return core.Frame(pkt.Payload), nil
	}
}
