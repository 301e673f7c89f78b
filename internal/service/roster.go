package service

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"cwl-tracker/internal/domain"
)

// RosterStore is what the roster service needs from persistence.
type RosterStore interface {
	Load(ctx context.Context) (*domain.AppData, error)
	ReplaceClans(ctx context.Context, clans []domain.Clan) error
	ReplaceTitle(ctx context.Context, title string) error
}

// RosterService serves the CWL roster document and its whole-value
// replace operations.
type RosterService struct {
	store  RosterStore
	logger zerolog.Logger
}

func NewRosterService(store RosterStore, logger zerolog.Logger) *RosterService {
	return &RosterService{store: store, logger: logger}
}

func (s *RosterService) Get(ctx context.Context) (*domain.AppData, error) {
	return s.store.Load(ctx)
}

// ReplaceClans rewrites the whole clan list, last writer wins. Clans
// arriving without an id (freshly added in the admin panel) get one.
func (s *RosterService) ReplaceClans(ctx context.Context, clans []domain.Clan) error {
	for i := range clans {
		if clans[i].ID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("generating clan id: %w", err)
			}
			clans[i].ID = id
		}
	}

	if err := s.store.ReplaceClans(ctx, clans); err != nil {
		return err
	}
	s.logger.Info().Int("clans", len(clans)).Msg("clan list replaced")
	return nil
}

func (s *RosterService) ReplaceTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultTitle
	}

	if err := s.store.ReplaceTitle(ctx, title); err != nil {
		return err
	}
	s.logger.Info().Str("title", title).Msg("title replaced")
	return nil
}

// Search finds roster players across all clans by discord username or
// tag. Matching is a case-insensitive substring check with '#' ignored
// on both sides of the tag comparison.
func (s *RosterService) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	tagQuery := strings.ReplaceAll(query, "#", "")

	data, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	results := []domain.SearchResult{}
	for _, clan := range data.Clans {
		for _, player := range clan.Players {
			discord := strings.ToLower(player.DiscordUsername)
			tag := strings.ReplaceAll(strings.ToLower(player.Tag), "#", "")

			if (discord != "" && strings.Contains(discord, query)) ||
				(tag != "" && strings.Contains(tag, tagQuery)) {
				results = append(results, domain.SearchResult{
					PlayerName:      player.Name,
					PlayerTag:       player.Tag,
					DiscordUsername: player.DiscordUsername,
					ClanName:        clan.Name,
					ClanTag:         clan.Tag,
				})
			}
		}
	}

	return results, nil
}
