package fx

import (
	"royale-analytics/internal/analytics"
	"royale-analytics/internal/api"
	"royale-analytics/internal/config"
	"royale-analytics/internal/database"
	"royale-analytics/internal/logger"
	"royale-analytics/internal/repository"
	"royale-analytics/internal/server"
	"royale-analytics/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideEngine(repo *repository.PlayerRepository, log zerolog.Logger) *analytics.Engine {
	return analytics.NewEngine(repo, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewCardRepository),
	// provider client
	fx.Provide(api.NewClashClient),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewCardService),
	// analytics core
	fx.Provide(ProvideEngine),
	// server
	fx.Provide(server.New),
)
