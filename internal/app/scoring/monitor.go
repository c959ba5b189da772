// Package scoring turns noisy per-frame gaze and head-pose signals into
// a stable suspicion verdict.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/interviewmeet/backend/internal/core"
)

// Counter limits are tuned for a 10 fps analysis rate.
const (
	GazeDeflectionFrameLimit = 50 // ~5s of sustained off-center gaze
	HeadAwayFrameLimit       = 30 // ~3s of sustained head turn
	YawThresholdDegrees      = 30.0
	// The pose solver reports pitch on a convention where ~±180° is the
	// neutral facing-camera pose; deviation toward 0° means turning
	// away. PitchAwayDegrees is the allowed deviation from that pole.
	PitchAwayDegrees   = 20.0
	SuspicionThreshold = 50

	counterDecay   = 2
	scoreIncrement = 10
	scoreDecay     = 5
)

// Event is one notable boundary crossing in the session history.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Details   string    `json:"details"`
}

// Conclusion is the final report computed once at session end.
type Conclusion struct {
	StatusText string            `json:"status_text"`
	Details    ConclusionDetails `json:"details"`
}

type ConclusionDetails struct {
	DurationSeconds float64 `json:"duration_analyzed_seconds"`
	FramesAnalyzed  int     `json:"total_frames_analyzed"`
	SuspicionScore  int     `json:"suspicion_score_final"`
	TrustScore      int     `json:"trust_score"`
	FPSAnalyzed     float64 `json:"fps_analyzed"`
	GazeDeflections int     `json:"gaze_deflection_count"`
	HeadTurns       int     `json:"head_turn_count"`
	KeyEvents       []Event `json:"key_events_triggered"`
}

// Monitor keeps the per-session counters. It is owned by exactly one
// analysis session and mutated only from its frame-consumption task, so
// it needs no locking.
type Monitor struct {
	gazeFrames int // rolling, leaky
	headFrames int // rolling, leaky
	score      int // live rolling score

	framesTotal int
	gazeTotal   int
	headTotal   int
	start       time.Time
	events      []Event

	now func() time.Time
}

func NewMonitor() *Monitor {
	m := &Monitor{now: time.Now}
	m.start = m.now()
	return m
}

// Update feeds one frame's signals into the counters. Each counter
// gains 1 on its trigger and leaks by 2 otherwise, floored at zero, so
// brief glances decay away while sustained deviation accumulates. A
// history event is appended exactly when a counter crosses its limit
// from below.
func (m *Monitor) Update(gaze core.GazeClass, yaw, pitch *float64) {
	m.framesTotal++

	if gaze == core.GazeLeft || gaze == core.GazeRight {
		m.gazeTotal++
		prev := m.gazeFrames
		m.gazeFrames++
		if prev <= GazeDeflectionFrameLimit && m.gazeFrames > GazeDeflectionFrameLimit {
			m.logEvent("Sustained Gaze Deflection",
				fmt.Sprintf("Gaze deflected for approx. %.1fs", float64(GazeDeflectionFrameLimit)/10))
		}
	} else {
		m.gazeFrames = max(0, m.gazeFrames-counterDecay)
	}

	// A nil angle means the pose solver had no estimate for this frame;
	// it contributes no turn signal.
	turned := false
	if yaw != nil && math.Abs(*yaw) > YawThresholdDegrees {
		turned = true
	}
	if pitch != nil && math.Abs(*pitch) < 180-PitchAwayDegrees {
		turned = true
	}
	if turned {
		m.headTotal++
		prev := m.headFrames
		m.headFrames++
		if prev <= HeadAwayFrameLimit && m.headFrames > HeadAwayFrameLimit {
			m.logEvent("Sustained Head Turn Away",
				fmt.Sprintf("Head turned for approx. %.1fs", float64(HeadAwayFrameLimit)/10))
		}
	} else {
		m.headFrames = max(0, m.headFrames-counterDecay)
	}
}

func (m *Monitor) logEvent(kind, details string) {
	m.events = append(m.events, Event{Timestamp: m.now(), Type: kind, Details: details})
}

// AssessStatus advances the live rolling score and reports the current
// triggers. It is independent of the final conclusion.
func (m *Monitor) AssessStatus() string {
	var triggers []string
	if m.gazeFrames > GazeDeflectionFrameLimit {
		triggers = append(triggers, "Gaze")
		m.score += scoreIncrement
	}
	if m.headFrames > HeadAwayFrameLimit {
		triggers = append(triggers, "Head Pose")
		m.score += scoreIncrement
	}
	if len(triggers) == 0 {
		m.score = max(0, m.score-scoreDecay)
	}
	m.score = min(m.score, SuspicionThreshold*2)

	if m.score > SuspicionThreshold {
		return fmt.Sprintf("Potential Cheating (%s) Score: %d", strings.Join(triggers, ", "), m.score)
	}
	return fmt.Sprintf("Normal. Score: %d. GazeFrames: %d, HeadFrames: %d", m.score, m.gazeFrames, m.headFrames)
}

// FinalConclusion derives the session verdict from lifetime totals.
// Suspicion and trust are computed and clamped independently; they are
// exact complements only when neither hits a clamp.
func (m *Monitor) FinalConclusion() Conclusion {
	duration := m.now().Sub(m.start).Seconds()

	var gazeRatio, headRatio float64
	if m.framesTotal > 0 {
		gazeRatio = float64(m.gazeTotal) / float64(m.framesTotal)
		headRatio = float64(m.headTotal) / float64(m.framesTotal)
	}
	suspicion := clampScore(int(math.Round(50*gazeRatio + 50*headRatio)))
	trust := clampScore(int(math.Round(100 - 50*gazeRatio - 50*headRatio)))

	var fps float64
	if duration > 0 && m.framesTotal > 0 {
		fps = math.Round(float64(m.framesTotal)/duration*100) / 100
	}

	var status string
	switch {
	case suspicion > 70:
		status = fmt.Sprintf("High Concern (Suspicion: %d).", suspicion)
	case suspicion > 35:
		status = fmt.Sprintf("Moderate Concern (Suspicion: %d).", suspicion)
	case m.gazeTotal > 0 || m.headTotal > 0:
		status = fmt.Sprintf("Low Concern (Suspicion: %d). Some deviations noted.", suspicion)
	default:
		status = fmt.Sprintf("Low Concern (Suspicion: %d). No significant deviations.", suspicion)
	}

	return Conclusion{
		StatusText: status,
		Details: ConclusionDetails{
			DurationSeconds: math.Round(duration*100) / 100,
			FramesAnalyzed:  m.framesTotal,
			SuspicionScore:  suspicion,
			TrustScore:      trust,
			FPSAnalyzed:     fps,
			GazeDeflections: m.gazeTotal,
			HeadTurns:       m.headTotal,
			KeyEvents:       m.events,
		},
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
