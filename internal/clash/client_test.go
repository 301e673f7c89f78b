package clash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cwl-tracker/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(&config.Config{
		COCAPIToken:   "secret-token",
		COCAPIBaseURL: ts.URL,
	})
}

func TestGetClanMembers_SendsBearerAndEscapedTag(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		// The '#' travels URL-escaped as %23.
		if r.URL.Path != "/clans/#CLAN1/members" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"tag":"#ABC12","name":"alpha","trophies":5000,"townHallLevel":15}]}`))
	})

	members, err := c.GetClanMembers(context.Background(), "#CLAN1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	if members[0].Tag != "#ABC12" || members[0].Trophies != 5000 {
		t.Fatalf("member not parsed: %+v", members[0])
	}
}

func TestGetClanMembers_HashAlreadyStripped(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clans/#CLAN1/members" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	// A tag without '#' builds the same URL as one with it.
	members, err := c.GetClanMembers(context.Background(), "CLAN1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty member list, got %d", len(members))
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"reason":"notFound"}`))
	})

	_, err := c.GetPlayer(context.Background(), "#NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetPlayer_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"reason":"inMaintenance"}`))
	})

	_, err := c.GetPlayer(context.Background(), "#ABC12")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", upstream.StatusCode)
	}
	if string(upstream.Body) != `{"reason":"inMaintenance"}` {
		t.Fatalf("body = %s", upstream.Body)
	}
}

func TestGetPlayer_ParsesStats(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/players/#8VJLQPUYR" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"tag":"#8VJLQPUYR","name":"King","townHallLevel":16,"trophies":5432,"league":{"name":"Legend League"}}`))
	})

	player, err := c.GetPlayer(context.Background(), "#8VJLQPUYR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Name != "King" || player.Trophies != 5432 || player.League.Name != "Legend League" {
		t.Fatalf("player not parsed: %+v", player)
	}
}

func TestRaw_RelaysWithoutInterpretation(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"reason":"accessDenied"}`))
	})

	status, body, err := c.Raw(context.Background(), "player", "#ABC12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 relayed", status)
	}
	if string(body) != `{"reason":"accessDenied"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestRaw_RejectsUnknownEndpoint(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for unknown endpoint")
	})

	if _, _, err := c.Raw(context.Background(), "clans", "#ABC12"); err == nil {
		t.Fatalf("expected error for unknown endpoint")
	}
}
