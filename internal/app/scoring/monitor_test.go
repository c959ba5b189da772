package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/interviewmeet/backend/internal/core"
)

func ptr(v float64) *float64 { return &v }

// testMonitor pins the clock so duration-derived fields are exact.
func testMonitor(advance time.Duration) *Monitor {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor()
	m.start = base
	m.now = func() time.Time { return base.Add(advance) }
	return m
}

func feedCenter(m *Monitor, n int) {
	for i := 0; i < n; i++ {
		m.Update(core.GazeCenter, ptr(0), ptr(180))
	}
}

func TestSustainedGazeDeflectionLogsOneEvent(t *testing.T) {
	m := testMonitor(10 * time.Second)
	for i := 0; i < GazeDeflectionFrameLimit+10; i++ {
		m.Update(core.GazeLeft, ptr(0), ptr(180))
	}

	var gazeEvents int
	for _, ev := range m.events {
		if ev.Type == "Sustained Gaze Deflection" {
			gazeEvents++
		}
	}
	if gazeEvents != 1 {
		t.Errorf("gaze deflection events = %d, want exactly 1", gazeEvents)
	}
	if m.gazeFrames <= GazeDeflectionFrameLimit {
		t.Errorf("gazeFrames = %d, want above the limit", m.gazeFrames)
	}
}

func TestGazeCounterDecays(t *testing.T) {
	m := testMonitor(time.Second)
	for i := 0; i < 10; i++ {
		m.Update(core.GazeRight, nil, nil)
	}
	// Ten glances decay away in five centered frames (leak 2 per frame).
	feedCenter(m, 5)
	if m.gazeFrames != 0 {
		t.Errorf("gazeFrames = %d, want 0 after decay", m.gazeFrames)
	}
	// The floor holds under further decay.
	feedCenter(m, 3)
	if m.gazeFrames != 0 {
		t.Errorf("gazeFrames = %d, decay must floor at 0", m.gazeFrames)
	}
}

func TestHeadTurnByYaw(t *testing.T) {
	m := testMonitor(time.Second)
	for i := 0; i < HeadAwayFrameLimit+5; i++ {
		m.Update(core.GazeCenter, ptr(45), ptr(180))
	}
	var headEvents int
	for _, ev := range m.events {
		if ev.Type == "Sustained Head Turn Away" {
			headEvents++
		}
	}
	if headEvents != 1 {
		t.Errorf("head turn events = %d, want exactly 1", headEvents)
	}
}

func TestHeadTurnByPitch(t *testing.T) {
	m := testMonitor(time.Second)
	// Pitch is neutral near ±180; 150 is a clear turn away.
	m.Update(core.GazeCenter, ptr(0), ptr(150))
	if m.headTotal != 1 {
		t.Errorf("headTotal = %d, pitch 150 must count as a turn", m.headTotal)
	}
	m.Update(core.GazeCenter, ptr(0), ptr(-150))
	if m.headTotal != 2 {
		t.Errorf("headTotal = %d, pitch -150 must count as a turn", m.headTotal)
	}
}

func TestNeutralPitchPoleIsNotATurn(t *testing.T) {
	m := testMonitor(time.Second)
	for _, pitch := range []float64{180, -180, 175, -175, 165} {
		m.Update(core.GazeCenter, ptr(0), ptr(pitch))
	}
	if m.headTotal != 0 {
		t.Errorf("headTotal = %d, near-pole pitch must not trigger", m.headTotal)
	}
}

func TestNilAnglesAreIgnored(t *testing.T) {
	m := testMonitor(time.Second)
	for i := 0; i < HeadAwayFrameLimit*2; i++ {
		m.Update(core.GazeCenter, nil, nil)
	}
	if m.headTotal != 0 || m.headFrames != 0 {
		t.Errorf("missing pose estimates must not count as turns: total=%d frames=%d",
			m.headTotal, m.headFrames)
	}
}

func TestAssessStatusScoreDecay(t *testing.T) {
	m := testMonitor(time.Second)
	for i := 0; i < GazeDeflectionFrameLimit+1; i++ {
		m.Update(core.GazeLeft, nil, nil)
	}
	// Six assessments with the trigger held push the live score past the
	// threshold.
	var status string
	for i := 0; i < 6; i++ {
		m.Update(core.GazeLeft, nil, nil)
		status = m.AssessStatus()
	}
	if !strings.Contains(status, "Potential Cheating (Gaze)") {
		t.Fatalf("status = %q, want a gaze cheating verdict", status)
	}

	// Once the subject recenters, the live score drains back to zero.
	for i := 0; i < 60; i++ {
		feedCenter(m, 1)
		m.AssessStatus()
	}
	if m.score != 0 {
		t.Errorf("score = %d, want 0 after sustained normal behavior", m.score)
	}
	if got := m.AssessStatus(); !strings.HasPrefix(got, "Normal.") {
		t.Errorf("status = %q, want Normal", got)
	}
}

func TestFinalConclusionNoFrames(t *testing.T) {
	m := testMonitor(2 * time.Second)
	c := m.FinalConclusion()
	if c.Details.SuspicionScore != 0 {
		t.Errorf("suspicion = %d, want 0 with no frames", c.Details.SuspicionScore)
	}
	if c.Details.TrustScore != 100 {
		t.Errorf("trust = %d, want 100 with no frames", c.Details.TrustScore)
	}
	if c.Details.FPSAnalyzed != 0 {
		t.Errorf("fps = %v, want 0 with no frames", c.Details.FPSAnalyzed)
	}
	if !strings.Contains(c.StatusText, "No significant deviations") {
		t.Errorf("status = %q", c.StatusText)
	}
}

func TestFinalConclusionAllDeviant(t *testing.T) {
	m := testMonitor(10 * time.Second)
	for i := 0; i < 100; i++ {
		m.Update(core.GazeLeft, ptr(45), ptr(180))
	}
	c := m.FinalConclusion()
	if c.Details.SuspicionScore != 100 {
		t.Errorf("suspicion = %d, want 100 for fully deviant session", c.Details.SuspicionScore)
	}
	if c.Details.TrustScore != 0 {
		t.Errorf("trust = %d, want 0", c.Details.TrustScore)
	}
	if !strings.Contains(c.StatusText, "High Concern") {
		t.Errorf("status = %q, want High Concern", c.StatusText)
	}
	if c.Details.FramesAnalyzed != 100 {
		t.Errorf("frames = %d, want 100", c.Details.FramesAnalyzed)
	}
	if c.Details.FPSAnalyzed != 10 {
		t.Errorf("fps = %v, want 10", c.Details.FPSAnalyzed)
	}
}

func TestFinalConclusionBuckets(t *testing.T) {
	cases := []struct {
		name       string
		gaze, head int // deviant frames out of 100
		wantStatus string
	}{
		{"clean", 0, 0, "No significant deviations"},
		{"mild", 20, 0, "Some deviations noted"},
		{"moderate", 80, 0, "Moderate Concern"},
		{"high", 100, 60, "High Concern"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := testMonitor(10 * time.Second)
			for i := 0; i < 100; i++ {
				gaze := core.GazeCenter
				if i < tc.gaze {
					gaze = core.GazeLeft
				}
				yaw := 0.0
				if i < tc.head {
					yaw = 60.0
				}
				m.Update(gaze, ptr(yaw), ptr(180))
			}
			c := m.FinalConclusion()
			if !strings.Contains(c.StatusText, tc.wantStatus) {
				t.Errorf("status = %q, want it to contain %q", c.StatusText, tc.wantStatus)
			}
		})
	}
}

func TestFinalConclusionDuration(t *testing.T) {
	m := testMonitor(4 * time.Second)
	feedCenter(m, 40)
	c := m.FinalConclusion()
	if c.Details.DurationSeconds != 4 {
		t.Errorf("duration = %v, want 4", c.Details.DurationSeconds)
	}
	if c.Details.FPSAnalyzed != 10 {
		t.Errorf("fps = %v, want 10", c.Details.FPSAnalyzed)
	}
}
