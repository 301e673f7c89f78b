package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/domain"
)

type fakeTrackedStore struct {
	mu      sync.Mutex
	players []domain.TrackedPlayer
	updates map[string]int
	listErr error
}

func (f *fakeTrackedStore) List(context.Context) ([]domain.TrackedPlayer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TrackedPlayer, len(f.players))
	copy(out, f.players)
	return out, nil
}

func (f *fakeTrackedStore) UpdateStats(_ context.Context, tag, name string, trophies int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string]int)
	}
	f.updates[tag]++
	for i := range f.players {
		if f.players[i].PlayerTag == domain.NormalizeTag(tag) {
			f.players[i].PlayerName = name
			f.players[i].Trophies = trophies
		}
	}
	return nil
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	records []domain.EODRecord
}

func (f *fakeSnapshotStore) Append(_ context.Context, entries []domain.EODEntry) (*domain.EODRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := domain.EODRecord{
		ID:         "rec",
		RecordedAt: time.Now().UTC(),
		Records:    entries,
	}
	// prepend: Latest returns newest first
	f.records = append([]domain.EODRecord{rec}, f.records...)
	return &rec, nil
}

func (f *fakeSnapshotStore) Latest(_ context.Context, n int) ([]domain.EODRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.records) {
		n = len(f.records)
	}
	out := make([]domain.EODRecord, n)
	copy(out, f.records[:n])
	return out, nil
}

func tracked(tag string, trophies int) domain.TrackedPlayer {
	return domain.TrackedPlayer{
		ID:         "id-" + tag,
		PlayerName: "player-" + tag,
		PlayerTag:  tag,
		Trophies:   trophies,
	}
}

func TestRefreshAll_PartialFailureStillCompletes(t *testing.T) {
	t.Parallel()

	store := &fakeTrackedStore{players: []domain.TrackedPlayer{
		tracked("AAA", 5000), tracked("BBB", 5100), tracked("CCC", 5200),
	}}
	api := &fakeClashAPI{
		player: func(tag string) (*clash.PlayerResponse, error) {
			if domain.NormalizeTag(tag) == "BBB" {
				return nil, errors.New("timeout")
			}
			return &clash.PlayerResponse{Name: "fresh-" + tag, Trophies: 6000}, nil
		},
	}
	r := NewRefresher(api, store, &fakeSnapshotStore{}, zerolog.Nop())

	summary, err := r.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Attempted != 3 {
		t.Fatalf("attempted = %d, want 3", summary.Attempted)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 2/1", summary.Succeeded, summary.Failed)
	}
	if summary.Succeeded+summary.Failed != summary.Attempted {
		t.Fatalf("succeeded+failed must equal attempted")
	}

	// The failing row keeps its prior trophies; the others were updated.
	for _, p := range store.players {
		switch p.PlayerTag {
		case "BBB":
			if p.Trophies != 5100 {
				t.Fatalf("failed row must retain prior trophies, got %d", p.Trophies)
			}
		default:
			if p.Trophies != 6000 {
				t.Fatalf("row %s not refreshed, trophies=%d", p.PlayerTag, p.Trophies)
			}
		}
	}
}

func TestRefreshAll_EmptyStore(t *testing.T) {
	t.Parallel()

	api := &fakeClashAPI{player: func(string) (*clash.PlayerResponse, error) {
		t.Fatalf("no fetches expected for empty store")
		return nil, nil
	}}
	r := NewRefresher(api, &fakeTrackedStore{}, &fakeSnapshotStore{}, zerolog.Nop())

	summary, err := r.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Attempted != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestRecordEOD_SnapshotsEveryTrackedPlayer(t *testing.T) {
	t.Parallel()

	store := &fakeTrackedStore{players: []domain.TrackedPlayer{
		tracked("AAA", 5000), tracked("BBB", 5100),
	}}
	eod := &fakeSnapshotStore{}
	r := NewRefresher(&fakeClashAPI{}, store, eod, zerolog.Nop())

	record, err := r.RecordEOD(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(record.Records) != 2 {
		t.Fatalf("snapshot must cover all tracked players, got %d entries", len(record.Records))
	}
	if len(eod.records) != 1 {
		t.Fatalf("expected exactly one appended record, got %d", len(eod.records))
	}

	// A second snapshot appends; it never rewrites the first.
	if _, err := r.RecordEOD(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eod.records) != 2 {
		t.Fatalf("expected two records after second snapshot, got %d", len(eod.records))
	}
}

func TestTrophyChanges_DistinguishesUndefinedFromZero(t *testing.T) {
	t.Parallel()

	previous := domain.EODRecord{Records: []domain.EODEntry{
		{PlayerTag: "AAA", Trophies: 5000},
		{PlayerTag: "BBB", Trophies: 5100},
	}}
	latest := domain.EODRecord{Records: []domain.EODEntry{
		{PlayerTag: "AAA", Trophies: 5040},
		{PlayerTag: "BBB", Trophies: 5100},
		{PlayerTag: "NEW", Trophies: 4800},
	}}

	changes := TrophyChanges(latest, &previous)

	if got := changes["AAA"]; got == nil || *got != 40 {
		t.Fatalf("AAA change = %v, want 40", got)
	}
	if got := changes["BBB"]; got == nil || *got != 0 {
		t.Fatalf("BBB change = %v, want explicit zero", got)
	}
	if got := changes["NEW"]; got != nil {
		t.Fatalf("NEW change = %v, want nil (no prior data)", *got)
	}
}

func TestTrophyChanges_NoPreviousRecord(t *testing.T) {
	t.Parallel()

	latest := domain.EODRecord{Records: []domain.EODEntry{{PlayerTag: "AAA", Trophies: 5000}}}
	changes := TrophyChanges(latest, nil)
	if got := changes["AAA"]; got != nil {
		t.Fatalf("change without any previous record must be nil, got %v", *got)
	}
}

func TestEODStandings_JoinsAndSorts(t *testing.T) {
	t.Parallel()

	store := &fakeTrackedStore{players: []domain.TrackedPlayer{
		{ID: "1", PlayerName: "low", PlayerTag: "LOW", Trophies: 4800, DiscordUsername: "@low"},
		{ID: "2", PlayerName: "high", PlayerTag: "HIGH", Trophies: 5900, DiscordUsername: "@high"},
	}}
	eod := &fakeSnapshotStore{records: []domain.EODRecord{
		{
			ID:         "latest",
			RecordedAt: time.Now().UTC(),
			Records: []domain.EODEntry{
				{PlayerTag: "LOW", Trophies: 4800},
				{PlayerTag: "HIGH", Trophies: 5900},
				{PlayerTag: "GONE", Trophies: 5000},
			},
		},
		{
			ID:         "previous",
			RecordedAt: time.Now().UTC().Add(-24 * time.Hour),
			Records: []domain.EODEntry{
				{PlayerTag: "LOW", Trophies: 4700},
			},
		},
	}}
	r := NewRefresher(&fakeClashAPI{}, store, eod, zerolog.Nop())

	standings, err := r.EODStandings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].PlayerTag != "HIGH" {
		t.Fatalf("standings not sorted by trophies desc, first=%s", standings[0].PlayerTag)
	}
	if standings[0].TrophyChange != nil {
		t.Fatalf("HIGH had no prior entry, change must be nil")
	}
	for _, st := range standings {
		if st.PlayerTag == "LOW" {
			if st.TrophyChange == nil || *st.TrophyChange != 100 {
				t.Fatalf("LOW change = %v, want 100", st.TrophyChange)
			}
			if st.DiscordUsername != "@low" {
				t.Fatalf("LOW not joined with tracked player details")
			}
		}
		if st.PlayerTag == "GONE" && st.PlayerName != "Unknown" {
			t.Fatalf("untracked snapshot entry should render as Unknown, got %s", st.PlayerName)
		}
	}
}

func TestEODStandings_NoRecordsYet(t *testing.T) {
	t.Parallel()

	r := NewRefresher(&fakeClashAPI{}, &fakeTrackedStore{}, &fakeSnapshotStore{}, zerolog.Nop())
	standings, err := r.EODStandings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(standings) != 0 {
		t.Fatalf("expected empty standings, got %d", len(standings))
	}
}
