package core

import "context"

// GazeClass classifies where a face is looking in one frame.
type GazeClass int

const (
	GazeCenter GazeClass = iota
	GazeLeft
	GazeRight
	GazeError
	GazeNoFace
)

func (g GazeClass) String() string {
	switch g {
	case GazeCenter:
		return "Looking Center/Forward"
	case GazeLeft:
		return "Looking Left"
	case GazeRight:
		return "Looking Right"
	case GazeNoFace:
		return "No face detected"
	default:
		return "Gaze Error"
	}
}

// ParseGaze maps the extractor's wire label to a GazeClass. Unknown
// labels are treated as extraction errors.
func ParseGaze(s string) GazeClass {
	switch s {
	case "Looking Center/Forward":
		return GazeCenter
	case "Looking Left":
		return GazeLeft
	case "Looking Right":
		return GazeRight
	case "No face detected":
		return GazeNoFace
	default:
		return GazeError
	}
}

// Features is the per-frame signal consumed by the scoring engine.
// Yaw and Pitch are head pose angles in degrees; nil when the pose
// solver produced no estimate for the frame.
type Features struct {
	Gaze  GazeClass
	Yaw   *float64
	Pitch *float64
}

// FeatureExtractor turns a raw frame into gaze/head-pose signals.
// The computer vision itself lives behind this boundary.
type FeatureExtractor interface {
	Extract(ctx context.Context, frame Frame) (Features, error)
}
