package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/interviewmeet/backend/internal/core"
)

func TestExtractDecodesSignals(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"gaze":"Looking Left","head_yaw":-42.5,"head_pitch":178.0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	feats, err := c.Extract(context.Background(), core.Frame{0xAA, 0xBB})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(gotBody) != "\xaa\xbb" {
		t.Errorf("frame body = %x, want aabb", gotBody)
	}
	if feats.Gaze != core.GazeLeft {
		t.Errorf("gaze = %v, want GazeLeft", feats.Gaze)
	}
	if feats.Yaw == nil || *feats.Yaw != -42.5 {
		t.Errorf("yaw = %v, want -42.5", feats.Yaw)
	}
	if feats.Pitch == nil || *feats.Pitch != 178.0 {
		t.Errorf("pitch = %v, want 178", feats.Pitch)
	}
}

func TestExtractNullAngles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"gaze":"No face detected","head_yaw":null,"head_pitch":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	feats, err := c.Extract(context.Background(), core.Frame{0x01})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if feats.Gaze != core.GazeNoFace {
		t.Errorf("gaze = %v, want GazeNoFace", feats.Gaze)
	}
	if feats.Yaw != nil || feats.Pitch != nil {
		t.Errorf("angles = (%v, %v), want nils", feats.Yaw, feats.Pitch)
	}
}

func TestExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Extract(context.Background(), core.Frame{0x01}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestParseGazeUnknownLabel(t *testing.T) {
	if got := core.ParseGaze("shrug"); got != core.GazeError {
		t.Errorf("ParseGaze(shrug) = %v, want GazeError", got)
	}
}
