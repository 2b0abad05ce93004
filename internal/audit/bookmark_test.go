package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRecordPostsJSONBody(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	b := New(srv.URL)
	b.Record(context.Background(), "lobby", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	if gotMethod != http.MethodPost {
		t.Fatalf("method: %s", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type: %s", gotContentType)
	}
	var body struct {
		RoomID   string `json:"roomId"`
		JoinedAt string `json:"joinedAt"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("body: %v (%s)", err, gotBody)
	}
	if body.RoomID != "lobby" || body.JoinedAt != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRecordSurvivesHostileRoomID(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	// a room name full of shell and JSON metacharacters stays a plain string
	hostile := `lobby"; rm -rf / #'$(x)`
	b := New(srv.URL)
	b.Record(context.Background(), hostile, time.Now())

	var body map[string]string
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("body must stay valid JSON: %v (%s)", err, gotBody)
	}
	if body["roomId"] != hostile {
		t.Fatalf("room id must round-trip verbatim, got %q", body["roomId"])
	}
}

func TestRecordDisabledAndNilSafe(t *testing.T) {
	New("").Record(context.Background(), "lobby", time.Now())

	var b *Bookmarker
	b.Record(context.Background(), "lobby", time.Now()) // must not panic
}

func TestRecordSwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	New(srv.URL).Record(context.Background(), "lobby", time.Now()) // must not panic or return
}
