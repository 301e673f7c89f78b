package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/constants"
	"cwl-tracker/internal/domain"
)

// PlayerAPI is the single-player slice of the upstream API.
type PlayerAPI interface {
	GetPlayer(ctx context.Context, playerTag string) (*clash.PlayerResponse, error)
}

// TrackedStore is what the refresher needs from the leaderboard store.
type TrackedStore interface {
	List(ctx context.Context) ([]domain.TrackedPlayer, error)
	UpdateStats(ctx context.Context, tag, name string, trophies int) error
}

// SnapshotStore is the append-only EOD history.
type SnapshotStore interface {
	Append(ctx context.Context, entries []domain.EODEntry) (*domain.EODRecord, error)
	Latest(ctx context.Context, n int) ([]domain.EODRecord, error)
}

// Refresher runs the push-event batch jobs: bulk trophy refresh from
// the upstream API and end-of-day snapshotting.
type Refresher struct {
	api     PlayerAPI
	players TrackedStore
	eod     SnapshotStore
	logger  zerolog.Logger
}

func NewRefresher(api PlayerAPI, players TrackedStore, eod SnapshotStore, logger zerolog.Logger) *Refresher {
	return &Refresher{api: api, players: players, eod: eod, logger: logger}
}

// RefreshAll fetches current stats for every tracked player and updates
// each row keyed by tag. One player's failure never aborts the rest:
// failures are logged, counted, and skipped. Rows whose tag no longer
// resolves upstream are left unchanged.
func (r *Refresher) RefreshAll(ctx context.Context) (*domain.RefreshSummary, error) {
	players, err := r.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked players: %w", err)
	}

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.RefreshWorkers)

	for _, player := range players {
		player := player
		g.Go(func() error {
			if err := r.refreshOne(gctx, player); err != nil {
				r.logger.Warn().
					Err(err).
					Str("player_tag", player.PlayerTag).
					Str("player_name", player.PlayerName).
					Msg("player refresh failed, continuing")
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	// Workers swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()

	summary := &domain.RefreshSummary{
		Attempted: len(players),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}

	r.logger.Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("leaderboard refresh completed")

	return summary, nil
}

func (r *Refresher) refreshOne(ctx context.Context, player domain.TrackedPlayer) error {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	stats, err := r.api.GetPlayer(apiCtx, player.PlayerTag)
	if err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}

	if err := r.players.UpdateStats(ctx, player.PlayerTag, stats.Name, stats.Trophies); err != nil {
		return fmt.Errorf("updating stats: %w", err)
	}
	return nil
}

// RecordEOD appends one immutable snapshot of every tracked player's
// current trophies. Prior snapshots are never touched. When invoked
// after RefreshAll in one logical run, the snapshot naturally reflects
// the refreshed values; a player whose refresh failed keeps the stored
// trophies from before.
func (r *Refresher) RecordEOD(ctx context.Context) (*domain.EODRecord, error) {
	players, err := r.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked players: %w", err)
	}

	entries := make([]domain.EODEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, domain.EODEntry{PlayerTag: p.PlayerTag, Trophies: p.Trophies})
	}

	record, err := r.eod.Append(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("appending eod record: %w", err)
	}

	r.logger.Info().
		Str("record_id", record.ID).
		Int("entries", len(entries)).
		Msg("eod snapshot recorded")

	return record, nil
}

// EODStandings builds the end-of-day leaderboard: the latest snapshot
// joined with tracked-player details, with per-player trophy deltas
// against the snapshot before it. Returns an empty slice when no
// snapshot exists yet.
func (r *Refresher) EODStandings(ctx context.Context) ([]domain.EODStanding, error) {
	records, err := r.eod.Latest(ctx, constants.EODHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading eod records: %w", err)
	}
	if len(records) == 0 {
		return []domain.EODStanding{}, nil
	}

	players, err := r.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked players: %w", err)
	}
	byTag := make(map[string]domain.TrackedPlayer, len(players))
	for _, p := range players {
		byTag[p.PlayerTag] = p
	}

	var previous *domain.EODRecord
	if len(records) > 1 {
		previous = &records[1]
	}
	changes := TrophyChanges(records[0], previous)

	standings := make([]domain.EODStanding, 0, len(records[0].Records))
	for _, entry := range records[0].Records {
		standing := domain.EODStanding{
			PlayerName:      "Unknown",
			PlayerTag:       entry.PlayerTag,
			Trophies:        entry.Trophies,
			DiscordUsername: "Unknown",
			RecordedAt:      records[0].RecordedAt,
			TrophyChange:    changes[entry.PlayerTag],
		}
		if p, ok := byTag[entry.PlayerTag]; ok {
			standing.PlayerName = p.PlayerName
			standing.DiscordUsername = p.DiscordUsername
		}
		standings = append(standings, standing)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Trophies > standings[j].Trophies
	})

	return standings, nil
}

// TrophyChanges computes per-player deltas between the latest snapshot
// and the one before it. A player absent from the previous snapshot
// maps to nil: "no prior data" is not the same as "no change".
func TrophyChanges(latest domain.EODRecord, previous *domain.EODRecord) map[string]*int {
	prior := make(map[string]int)
	if previous != nil {
		for _, entry := range previous.Records {
			prior[entry.PlayerTag] = entry.Trophies
		}
	}

	changes := make(map[string]*int, len(latest.Records))
	for _, entry := range latest.Records {
		if before, ok := prior[entry.PlayerTag]; ok {
			delta := entry.Trophies - before
			changes[entry.PlayerTag] = &delta
		} else {
			changes[entry.PlayerTag] = nil
		}
	}
	return changes
}
