//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"DashSync/pkg/config"
	"DashSync/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideKafkaProducer,
		ProvideLogger,

		// Backend and session
		ProvideBackendClient,
		ProvideMarketAPI,
		ProvideAuthAPI,
		ProvideTokenValidator,
		ProvideRedisClient,
		ProvideTokenStore,
		ProvideSessionStore,

		// Engine
		ProvideEngine,

		// HTTP
		ProvideLimiter,
		ProvideDashboardHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
