package fx

import (
	"lampview/internal/config"
	"lampview/internal/database"
	"lampview/internal/logger"
	"lampview/internal/server"
	"lampview/internal/service"
	"lampview/internal/session"
	"lampview/internal/tables"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// sessions
	fx.Provide(session.NewRegistry),
	// difficulty tables
	fx.Provide(tables.NewFetcher),
	fx.Provide(tables.NewStore),
	fx.Provide(tables.NewService),
	// svc
	fx.Provide(service.NewChangelogService),
	fx.Provide(service.NewLampGraphService),
	fx.Provide(service.NewHeatmapService),
	// server
	fx.Provide(server.New),
)
