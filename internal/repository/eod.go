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

// EODRepository persists end-of-day snapshots. Records are append-only;
// nothing here updates or deletes an existing row.
type EODRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewEODRepository(db *sql.DB, logger zerolog.Logger) *EODRepository {
	return &EODRepository{db: db, logger: logger}
}

// Append inserts one new snapshot holding the given entries.
func (r *EODRepository) Append(ctx context.Context, entries []domain.EODEntry) (*domain.EODRecord, error) {
	if entries == nil {
		entries = []domain.EODEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding eod entries: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating id: %w", err)
	}
	recordedAt := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO eod_records (id, records, recorded_at) VALUES (?, ?, ?)`,
		id, string(data), recordedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting eod record: %w", err)
	}

	r.logger.Info().Str("id", id).Int("entries", len(entries)).Msg("eod record appended")
	return &domain.EODRecord{ID: id, RecordedAt: recordedAt, Records: entries}, nil
}

// Latest returns up to n snapshots, newest first.
func (r *EODRepository) Latest(ctx context.Context, n int) ([]domain.EODRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, records, recorded_at FROM eod_records ORDER BY recorded_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing eod records: %w", err)
	}
	defer rows.Close()

	var records []domain.EODRecord
	for rows.Next() {
		var (
			rec         domain.EODRecord
			entriesJSON string
		)
		if err := rows.Scan(&rec.ID, &entriesJSON, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning eod record: %w", err)
		}
		if err := json.Unmarshal([]byte(entriesJSON), &rec.Records); err != nil {
			return nil, fmt.Errorf("parsing eod entries: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
