package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"cwl-tracker/internal/auth"
	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/config"
	"cwl-tracker/internal/database"
	"cwl-tracker/internal/logger"
	"cwl-tracker/internal/repository"
	"cwl-tracker/internal/server"
	"cwl-tracker/internal/service"
)

// Constructors that take interfaces get small adapters here so fx can
// resolve them from the concrete providers.

func ProvideReconciler(c *clash.Client, log zerolog.Logger) *service.Reconciler {
	return service.NewReconciler(c, log)
}

func ProvideRefresher(c *clash.Client, players *repository.LeaderboardRepository, eod *repository.EODRepository, log zerolog.Logger) *service.Refresher {
	return service.NewRefresher(c, players, eod, log)
}

func ProvideRosterService(store *repository.RosterRepository, log zerolog.Logger) *service.RosterService {
	return service.NewRosterService(store, log)
}

func ProvideRegistration(c *clash.Client, players *repository.LeaderboardRepository, log zerolog.Logger) *service.Registration {
	return service.NewRegistration(c, players, log)
}

func ProvideServer(
	roster *service.RosterService,
	reconciler *service.Reconciler,
	refresher *service.Refresher,
	registration *service.Registration,
	leaderboard *repository.LeaderboardRepository,
	c *clash.Client,
	sessions *auth.Manager,
	log zerolog.Logger,
) *server.Server {
	return server.NewServer(roster, reconciler, refresher, registration, leaderboard, c, sessions, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewRosterRepository),
	fx.Provide(repository.NewLeaderboardRepository),
	fx.Provide(repository.NewEODRepository),
	// api client
	fx.Provide(clash.NewClient),
	// auth
	fx.Provide(auth.NewManager),
	// svc
	fx.Provide(ProvideReconciler),
	fx.Provide(ProvideRefresher),
	fx.Provide(ProvideRosterService),
	fx.Provide(ProvideRegistration),
	// server
	fx.Provide(ProvideServer),
)
