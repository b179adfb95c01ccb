package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	domsvc "StockPredict/internal/domain/service"
	applogger "StockPredict/pkg/logger"
)

// DefaultLookback is the history window used when a caller passes none.
const DefaultLookback = 365

// HistoryCache caches recent history windows per symbol.
type HistoryCache interface {
	Get(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, bool)
	Set(ctx context.Context, symbol string, n int, records []models.HistoricalRecord) error
}

// PredictionService runs the forest over inline payloads and stored history.
type PredictionService struct {
	forecaster domsvc.Forecaster
	store      domrepo.Store
	cache      HistoryCache
	pub        domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
	now        func() time.Time
}

// NewPredictionService wires the service. cache and pub may be nil.
func NewPredictionService(
	forecaster domsvc.Forecaster,
	store domrepo.Store,
	cache HistoryCache,
	pub domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *PredictionService {
	if log == nil {
		log = applogger.Nop()
	}
	return &PredictionService{
		forecaster: forecaster,
		store:      store,
		cache:      cache,
		pub:        pub,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
	}
}

// PredictPayload runs the forest over an inline request. Nothing is stored.
func (s *PredictionService) PredictPayload(ctx context.Context, req *models.PredictRequest) models.PredictResponse {
	start := time.Now()
	res := s.forecaster.Predict(req.HistoricalData, req.DaysAhead)
	s.metrics.RecordLatency("predict_payload", time.Since(start).Seconds())
	s.metrics.RecordPrediction("inline", res)
	s.log.Debug("inline prediction",
		applogger.Int("records", len(req.HistoricalData)),
		applogger.Int("days_ahead", req.DaysAhead),
		applogger.Float64("confidence", res.Confidence),
		applogger.Bool("available", res.Available()),
	)
	return res.Response()
}

// PredictSymbol predicts from the newest lookback rows of stored history.
// An unknown symbol is domrepo.ErrStockNotFound; a stock without history
// yields the no-prediction result.
func (s *PredictionService) PredictSymbol(ctx context.Context, symbol string, daysAhead, lookback int) (models.PredictionResult, error) {
	start := time.Now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if lookback < 1 {
		lookback = DefaultLookback
	}

	stock, err := s.store.GetStock(ctx, symbol)
	if err != nil {
		if !errors.Is(err, domrepo.ErrStockNotFound) {
			s.metrics.RecordError("store_get_stock")
		}
		return models.NoPrediction(), err
	}

	records, err := s.history(ctx, symbol, lookback)
	if err != nil {
		s.metrics.RecordError("store_history")
		return models.NoPrediction(), fmt.Errorf("load history %s: %w", symbol, err)
	}
	if len(records) == 0 {
		s.log.Warn("no historical data", applogger.String("symbol", symbol))
	}

	res := s.forecaster.Predict(records, daysAhead)
	s.metrics.RecordPrediction(symbol, res)

	if res.Available() {
		now := s.now().UTC()
		err := s.store.SavePrediction(ctx, models.StoredPrediction{
			StockID:        stock.ID,
			Symbol:         symbol,
			PredictionDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			DaysAhead:      daysAhead,
			PredictedPrice: models.Price(*res.PredictedPrice),
			Confidence:     models.Percent(res.Confidence),
			Algorithm:      models.AlgorithmRandomForest,
			CreatedAt:      now,
		})
		if err != nil {
			s.metrics.RecordError("store_save_prediction")
			return res, fmt.Errorf("save prediction %s: %w", symbol, err)
		}
	}

	if s.pub != nil {
		if err := s.pub.PublishPrediction(ctx, models.NewPredictionEvent(symbol, daysAhead, res)); err != nil {
			s.metrics.RecordError("publish_event")
			s.log.Warn("publish prediction event failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	s.metrics.RecordLatency("predict_symbol", time.Since(start).Seconds())
	s.log.Info("symbol prediction",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(records)),
		applogger.Int("returns", res.Returns),
		applogger.Int("days_ahead", daysAhead),
		applogger.Float64("scaled_drift", res.ScaledDrift),
		applogger.Float64("confidence", res.Confidence),
	)
	return res, nil
}

// PredictAll predicts every tracked stock. Per-stock failures are reported in
// the result rows; only a failure to list stocks is returned as an error.
func (s *PredictionService) PredictAll(ctx context.Context, daysAhead, lookback int) ([]models.SymbolPrediction, error) {
	start := time.Now()
	stocks, err := s.store.ListStocks(ctx)
	if err != nil {
		s.metrics.RecordError("store_list_stocks")
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	out := make([]models.SymbolPrediction, 0, len(stocks))
	failed := 0
	for _, st := range stocks {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := s.PredictSymbol(ctx, st.Symbol, daysAhead, lookback)
		row := models.SymbolPrediction{Symbol: st.Symbol, Result: res.Response()}
		if err != nil {
			failed++
			row.Error = err.Error()
			s.log.Error("batch prediction failed",
				applogger.String("symbol", st.Symbol),
				applogger.Error(err),
			)
		}
		out = append(out, row)
	}

	s.metrics.RecordLatency("predict_all", time.Since(start).Seconds())
	s.log.Info("batch prediction finished",
		applogger.Int("stocks", len(stocks)),
		applogger.Int("failed", failed),
		applogger.Duration("took", time.Since(start)),
	)
	return out, nil
}

// Stocks lists tracked stocks.
func (s *PredictionService) Stocks(ctx context.Context) ([]models.Stock, error) {
	return s.store.ListStocks(ctx)
}

// Predictions lists stored predictions for symbol, newest first.
func (s *PredictionService) Predictions(ctx context.Context, symbol string, limit int) ([]models.StoredPrediction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, err := s.store.GetStock(ctx, symbol); err != nil {
		return nil, err
	}
	return s.store.LatestPredictions(ctx, symbol, limit)
}

func (s *PredictionService) history(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error) {
	if s.cache != nil {
		if recs, ok := s.cache.Get(ctx, symbol, n); ok {
			return recs, nil
		}
	}
	recs, err := s.store.LatestHistory(ctx, symbol, n)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(recs) > 0 {
		if err := s.cache.Set(ctx, symbol, n, recs); err != nil {
			s.log.Warn("history cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return recs, nil
}
