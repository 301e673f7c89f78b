package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/constants"
	"cwl-tracker/internal/domain"
)

// ClanAPI is the slice of the upstream API the reconciler needs.
type ClanAPI interface {
	GetClanMembers(ctx context.Context, clanTag string) ([]domain.LiveMember, error)
	GetPlayer(ctx context.Context, playerTag string) (*clash.PlayerResponse, error)
}

// Reconciler compares a clan's admin-curated roster against the live
// member list the game reports and classifies every roster player as
// IN_CLAN, NOT_IN_CLAN, or INVALID_TAG.
type Reconciler struct {
	api    ClanAPI
	logger zerolog.Logger
}

func NewReconciler(api ClanAPI, logger zerolog.Logger) *Reconciler {
	return &Reconciler{api: api, logger: logger}
}

// CheckClan runs one reconciliation pass for a single clan. A failed
// member-list fetch is a clan-level error: no per-player classification
// is attempted, so callers can tell "could not check" apart from "clan
// has zero members". Re-running one clan never touches another.
func (r *Reconciler) CheckClan(ctx context.Context, clan domain.Clan) (*domain.ClanCheck, error) {
	memberCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	members, err := r.api.GetClanMembers(memberCtx, clan.Tag)
	if err != nil {
		r.logger.Error().Err(err).Str("clan_tag", clan.Tag).Msg("failed to fetch live members")
		return nil, fmt.Errorf("fetching members for clan %s: %w", clan.Tag, err)
	}

	live := make(map[string]struct{}, len(members))
	for _, m := range members {
		live[domain.NormalizeTag(m.Tag)] = struct{}{}
	}

	check := &domain.ClanCheck{
		ClanID:    clan.ID,
		ClanName:  clan.Name,
		ClanTag:   clan.Tag,
		CheckedAt: time.Now().UTC(),
		Players:   make([]domain.PlayerCheck, 0, len(clan.Players)),
	}

	for _, player := range clan.Players {
		status := r.classify(ctx, player, live)
		check.Players = append(check.Players, domain.PlayerCheck{Player: player, Status: status})
	}

	r.logger.Info().
		Str("clan_tag", clan.Tag).
		Int("roster_size", len(clan.Players)).
		Int("live_members", len(members)).
		Msg("clan reconciliation completed")

	return check, nil
}

// classify decides one player's status. Membership is a normalized
// string-set lookup; only players missing from the live list cost a
// supplementary lookup, and that lookup runs at most LookupAttempts
// times per player per pass.
func (r *Reconciler) classify(ctx context.Context, player domain.Player, live map[string]struct{}) domain.MemberStatus {
	if _, ok := live[domain.NormalizeTag(player.Tag)]; ok {
		return domain.StatusInClan
	}

	var lastErr error
	for attempt := 0; attempt < constants.LookupAttempts; attempt++ {
		lookupCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		_, err := r.api.GetPlayer(lookupCtx, player.Tag)
		cancel()

		if err == nil {
			return domain.StatusNotInClan
		}
		if errors.Is(err, clash.ErrNotFound) {
			return domain.StatusInvalidTag
		}
		lastErr = err
	}

	r.logger.Warn().
		Err(lastErr).
		Str("player_tag", player.Tag).
		Msg("supplementary player lookup failed, treating tag as invalid")
	return domain.StatusInvalidTag
}
