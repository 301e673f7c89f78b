package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/constants"
	"cwl-tracker/internal/domain"
)

// ErrInvalidTag means the player tag did not resolve upstream during
// registration or validation.
var ErrInvalidTag = errors.New("service: player tag not found")

// ErrMissingField means a required registration field was blank.
var ErrMissingField = errors.New("service: player tag and discord username are required")

// TrackedInserter is the insert-side of the leaderboard store.
type TrackedInserter interface {
	Insert(ctx context.Context, p *domain.TrackedPlayer) error
}

// Registration signs a player up for the push event: the tag is
// verified against the upstream API, then stored with live trophies.
type Registration struct {
	api     PlayerAPI
	players TrackedInserter
	logger  zerolog.Logger
}

func NewRegistration(api PlayerAPI, players TrackedInserter, logger zerolog.Logger) *Registration {
	return &Registration{api: api, players: players, logger: logger}
}

// Track registers one player. Returns ErrMissingField for blank input,
// ErrInvalidTag when the tag 404s upstream, and the store's
// ErrDuplicateTag untouched so callers can surface it as a validation
// error. No row is written unless the upstream fetch succeeded.
func (r *Registration) Track(ctx context.Context, playerTag, discordUsername string) (*domain.TrackedPlayer, error) {
	tag := domain.NormalizeTag(playerTag)
	discordUsername = strings.TrimSpace(discordUsername)
	if tag == "" || discordUsername == "" {
		return nil, ErrMissingField
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	stats, err := r.api.GetPlayer(apiCtx, tag)
	if err != nil {
		if errors.Is(err, clash.ErrNotFound) {
			return nil, ErrInvalidTag
		}
		return nil, fmt.Errorf("fetching player %s: %w", tag, err)
	}

	player := &domain.TrackedPlayer{
		PlayerName:      stats.Name,
		PlayerTag:       tag,
		Trophies:        stats.Trophies,
		DiscordUsername: discordUsername,
	}
	if err := r.players.Insert(ctx, player); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("tag", tag).
		Str("name", stats.Name).
		Int("trophies", stats.Trophies).
		Msg("player registered for push event")

	return player, nil
}

// Validate reports whether a tag resolves upstream. Only a definite
// 404 yields false; transport and upstream failures propagate so the
// caller can distinguish "invalid" from "could not check".
func (r *Registration) Validate(ctx context.Context, playerTag string) (bool, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	_, err := r.api.GetPlayer(apiCtx, playerTag)
	if err != nil {
		if errors.Is(err, clash.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("validating tag %s: %w", playerTag, err)
	}
	return true, nil
}
