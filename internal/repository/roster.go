package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"cwl-tracker/internal/domain"
)

// RosterRepository persists the single roster document: a title plus
// the full clan list, stored as one JSON column. Writes replace the
// whole value; last writer wins, no merge.
type RosterRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRosterRepository(db *sql.DB, logger zerolog.Logger) *RosterRepository {
	return &RosterRepository{db: db, logger: logger}
}

// Load returns the latest persisted roster document, or the fixed
// default when nothing has been saved yet.
func (r *RosterRepository) Load(ctx context.Context) (*domain.AppData, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT title, clans FROM clan_data ORDER BY created_at DESC LIMIT 1`)

	var title, clansJSON string
	if err := row.Scan(&title, &clansJSON); err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug().Msg("no roster document found, returning default")
			return &domain.AppData{Title: domain.DefaultTitle}, nil
		}
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	var clans []domain.Clan
	if err := json.Unmarshal([]byte(clansJSON), &clans); err != nil {
		return nil, fmt.Errorf("parsing stored clans: %w", err)
	}

	if title == "" {
		title = domain.DefaultTitle
	}
	return &domain.AppData{Title: title, Clans: clans}, nil
}

// ReplaceClans rewrites the entire clan list, preserving the stored
// title. Player ordering inside each clan survives the round trip.
func (r *RosterRepository) ReplaceClans(ctx context.Context, clans []domain.Clan) error {
	data, err := json.Marshal(clans)
	if err != nil {
		return fmt.Errorf("encoding clans: %w", err)
	}
	return r.replace(ctx, func(id string) (string, []any) {
		return `UPDATE clan_data SET clans = ?, updated_at = ? WHERE id = ?`,
			[]any{string(data), time.Now().UTC(), id}
	}, func(id string) (string, []any) {
		return `INSERT INTO clan_data (id, title, clans) VALUES (?, ?, ?)`,
			[]any{id, domain.DefaultTitle, string(data)}
	})
}

// ReplaceTitle rewrites the display title, preserving the clan list.
func (r *RosterRepository) ReplaceTitle(ctx context.Context, title string) error {
	return r.replace(ctx, func(id string) (string, []any) {
		return `UPDATE clan_data SET title = ?, updated_at = ? WHERE id = ?`,
			[]any{title, time.Now().UTC(), id}
	}, func(id string) (string, []any) {
		return `INSERT INTO clan_data (id, title, clans) VALUES (?, ?, '[]')`,
			[]any{id, title}
	})
}

func (r *RosterRepository) replace(
	ctx context.Context,
	update func(id string) (string, []any),
	insert func(id string) (string, []any),
) error {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM clan_data ORDER BY created_at DESC LIMIT 1`).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating id: %w", err)
		}
		query, args := insert(id)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting roster document: %w", err)
		}
	case err != nil:
		return fmt.Errorf("finding roster document: %w", err)
	default:
		query, args := update(id)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating roster document: %w", err)
		}
	}

	r.logger.Debug().Str("id", id).Msg("roster document replaced")
	return nil
}
