//go:build wireinject
// +build wireinject

package di

import (
	"StockPredict/pkg/config"
	"StockPredict/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideStore,
		ProvideHistoryCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideHub,
		ProvideEventPublisher,

		// Use cases
		ProvideForecaster,
		ProvidePredictionService,
		ProvideKafkaRequestsHandler,
		ProvideLimiter,
		ProvideScheduler,

		// Transport and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
