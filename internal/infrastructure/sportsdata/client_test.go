package sportsdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestForRoom_MapsEntriesAndCaches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/room-1/standings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_token"); got != "secret" {
			t.Errorf("expected api_token query param, got %q", got)
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"manager_id":"mgr-a","table_points":3,"fantasy_points":41.5},
			{"manager_id":"mgr-b","table_points":0,"fantasy_points":55.0},
			{"manager_id":"","table_points":9,"fantasy_points":1.0}
		]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		Token:        "secret",
		StandingsTTL: time.Minute,
	})

	entries, err := client.ForRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("ForRoom: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (blank manager dropped), got %d", len(entries))
	}
	if entries["mgr-a"].TablePoints != 3 || entries["mgr-a"].TotalFantasyPoints != 41.5 {
		t.Fatalf("unexpected mgr-a entry: %+v", entries["mgr-a"])
	}

	if _, err := client.ForRoom(context.Background(), "room-1"); err != nil {
		t.Fatalf("ForRoom cached: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one upstream hit within TTL, got %d", got)
	}
}

func TestLiveStarters_AlwaysFetchesFresh(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"live_player_ids":["att-01"," mid-03 ",""]}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	for i := 0; i < 2; i++ {
		live, err := client.LiveStarters(context.Background(), "room-1")
		if err != nil {
			t.Fatalf("LiveStarters: %v", err)
		}
		if len(live) != 2 {
			t.Fatalf("expected 2 live players, got %d", len(live))
		}
		if _, ok := live["att-01"]; !ok {
			t.Fatalf("expected att-01 in live set")
		}
		if _, ok := live["mid-03"]; !ok {
			t.Fatalf("expected trimmed mid-03 in live set")
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected a fresh fetch per call, got %d", got)
	}
}

func TestExecuteRequest_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, MaxRetries: 1})

	if _, err := client.ForRoom(context.Background(), "room-1"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestExecuteRequest_StopsOnNonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, MaxRetries: 3})

	if _, err := client.ForRoom(context.Background(), "room-1"); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected no retries on 404, got %d attempts", got)
	}
}

func TestSanitizeSensitiveText_RedactsToken(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText("dial https://feed?api_token=abc123 failed: abc123", "abc123")
	if got != "dial https://feed?api_token=REDACTED failed: REDACTED" {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}
