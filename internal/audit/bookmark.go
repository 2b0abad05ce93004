// Package audit posts room-join bookmarks to an external analytics endpoint.
// Strictly best effort: failures are logged and swallowed, and the call is a
// parameterized HTTP request with a fixed verb and URL, never a shell command.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Bookmarker struct {
	endpoint string
	client   *http.Client
}

// New returns a bookmarker posting to endpoint. An empty endpoint disables it.
func New(endpoint string) *Bookmarker {
	return &Bookmarker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type bookmark struct {
	RoomID   string `json:"roomId"`
	JoinedAt string `json:"joinedAt"`
}

// Record posts a join bookmark for the room. Safe to call on a nil or
// disabled bookmarker.
func (b *Bookmarker) Record(ctx context.Context, roomID string, joinedAt time.Time) {
	if b == nil || b.endpoint == "" {
		return
	}
	body, err := json.Marshal(bookmark{
		RoomID:   roomID,
		JoinedAt: joinedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn("bookmark encode failed", "room", roomID, "err", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Warn("bookmark request failed", "room", roomID, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		slog.Warn("bookmark post failed", "room", roomID, "err", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		slog.Warn("bookmark post rejected", "room", roomID, "status", resp.StatusCode)
	}
}
