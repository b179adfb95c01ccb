package service

import (
	"StockPredict/internal/domain/models"
)

// Forecaster projects a future close from historical records. Implementations
// never fail: degenerate input yields the no-prediction result.
type Forecaster interface {
	Predict(records []models.HistoricalRecord, daysAhead int) models.PredictionResult
}
