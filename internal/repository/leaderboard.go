package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"cwl-tracker/internal/domain"
)

// ErrDuplicateTag means a tracked player with the same normalized tag
// already exists. Registration surfaces this as a validation error.
var ErrDuplicateTag = errors.New("repository: player tag already tracked")

// ErrNotTracked means the referenced tracked player row does not exist.
// Deleting a missing row reports this rather than failing hard.
var ErrNotTracked = errors.New("repository: player not tracked")

// LeaderboardRepository persists push-event tracked players. Rows are
// keyed by canonical (normalized, no '#') player tag.
type LeaderboardRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLeaderboardRepository(db *sql.DB, logger zerolog.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{db: db, logger: logger}
}

// List returns every tracked player, highest trophies first.
func (r *LeaderboardRepository) List(ctx context.Context) ([]domain.TrackedPlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, player_name, player_tag, trophies, discord_username, created_at, updated_at
		 FROM legend_players ORDER BY trophies DESC, player_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tracked players: %w", err)
	}
	defer rows.Close()

	var players []domain.TrackedPlayer
	for rows.Next() {
		var p domain.TrackedPlayer
		if err := rows.Scan(&p.ID, &p.PlayerName, &p.PlayerTag, &p.Trophies,
			&p.DiscordUsername, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tracked player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Insert adds a new tracked player. The tag is normalized before
// storage. Returns ErrDuplicateTag when the tag is already tracked;
// the unique index backs up the pre-check under concurrent inserts.
func (r *LeaderboardRepository) Insert(ctx context.Context, p *domain.TrackedPlayer) error {
	p.PlayerTag = domain.NormalizeTag(p.PlayerTag)

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM legend_players WHERE player_tag = ?`, p.PlayerTag).Scan(&exists)
	if err == nil {
		return ErrDuplicateTag
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for duplicate tag: %w", err)
	}

	if p.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating id: %w", err)
		}
		p.ID = id
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO legend_players (id, player_name, player_tag, trophies, discord_username, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PlayerName, p.PlayerTag, p.Trophies, p.DiscordUsername, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateTag
		}
		return fmt.Errorf("inserting tracked player: %w", err)
	}

	r.logger.Info().Str("tag", p.PlayerTag).Str("name", p.PlayerName).Msg("tracked player inserted")
	return nil
}

// Delete removes a tracked player by row id. A missing id reports
// ErrNotTracked, never a crash.
func (r *LeaderboardRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM legend_players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tracked player: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting tracked player: %w", err)
	}
	if affected == 0 {
		return ErrNotTracked
	}

	r.logger.Info().Str("id", id).Msg("tracked player deleted")
	return nil
}

// UpdateStats refreshes name and trophies for one row, keyed by tag.
// A tag with no matching row is a no-op: the refresher leaves rows it
// can no longer resolve untouched.
func (r *LeaderboardRepository) UpdateStats(ctx context.Context, tag, name string, trophies int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE legend_players SET player_name = ?, trophies = ?, updated_at = ? WHERE player_tag = ?`,
		name, trophies, time.Now().UTC(), domain.NormalizeTag(tag))
	if err != nil {
		return fmt.Errorf("updating tracked player stats: %w", err)
	}
	return nil
}
