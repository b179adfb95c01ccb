package repository

import (
	"context"
	"errors"

	"StockPredict/internal/domain/models"
)

// ErrStockNotFound is returned when a symbol is not tracked.
var ErrStockNotFound = errors.New("stock not found")

// HistoryStore reads tracked stocks and their daily history.
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables
	ListStocks(ctx context.Context) ([]models.Stock, error)
	GetStock(ctx context.Context, symbol string) (models.Stock, error)
	// EnsureStock returns the stock for symbol, creating it when missing.
	EnsureStock(ctx context.Context, symbol, companyName string) (models.Stock, error)
	// LatestHistory returns the newest n rows for symbol in chronological order.
	LatestHistory(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error)
	ReplaceHistory(ctx context.Context, stockID int64, records []models.HistoricalRecord) error
	Health(ctx context.Context) error
	Close() error
}

// PredictionStore persists prediction rows.
type PredictionStore interface {
	SavePrediction(ctx context.Context, p models.StoredPrediction) error
	LatestPredictions(ctx context.Context, symbol string, limit int) ([]models.StoredPrediction, error)
	ClearPredictions(ctx context.Context) error
}

// Store is a backend that serves both history and predictions.
type Store interface {
	HistoryStore
	PredictionStore
}

// EventPublisher fans prediction events out to downstream consumers.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, ev models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(symbol string, res models.PredictionResult)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
