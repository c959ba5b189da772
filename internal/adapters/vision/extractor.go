// Package vision is the client-side boundary to the computer vision
// sidecar that turns frames into gaze/head-pose signals.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/interviewmeet/backend/internal/core"
)

// Client posts raw frames to the extractor service and decodes its
// per-frame signal.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type extractResponse struct {
	Gaze  string   `json:"gaze"`
	Yaw   *float64 `json:"head_yaw"`
	Pitch *float64 `json:"head_pitch"`
}

func (c *Client) Extract(ctx context.Context, frame core.Frame) (core.Features, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(frame))
	if err != nil {
		return core.Features{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Features{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Features{}, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.Features{}, fmt.Errorf("decode extractor response: %w", err)
	}
	return core.Features{
		Gaze:  core.ParseGaze(out.Gaze),
		Yaw:   out.Yaw,
		Pitch: out.Pitch,
	}, nil
}
