package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	"StockPredict/internal/repository"
	"StockPredict/internal/service/cache"
	"StockPredict/internal/services/forest"
)

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	latency     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, errors: map[string]int{}, latency: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(symbol string, _ models.PredictionResult) {
	m.mu.Lock()
	m.predictions[symbol]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	m.latency[op]++
	m.mu.Unlock()
}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.PredictionEvent
	err    error
}

func (p *capturePublisher) PublishPrediction(_ context.Context, ev models.PredictionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

// countingStore counts history loads to observe cache hits.
type countingStore struct {
	*repository.MemoryStore
	historyCalls int
	listErr      error
}

func (s *countingStore) LatestHistory(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error) {
	s.historyCalls++
	return s.MemoryStore.LatestHistory(ctx, symbol, n)
}

func (s *countingStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.ListStocks(ctx)
}

func seededForest() *forest.Predictor {
	p := forest.DefaultParams()
	p.Seed = 42
	return forest.New(p)
}

func series(vals ...float64) []models.HistoricalRecord {
	out := make([]models.HistoricalRecord, len(vals))
	for i, v := range vals {
		out[i] = models.HistoricalRecord{
			Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			ClosePrice: models.Float(v),
		}
	}
	return out
}

type fixture struct {
	svc     *PredictionService
	store   *countingStore
	pub     *capturePublisher
	metrics *fakeMetrics
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	pub := &capturePublisher{}
	m := newFakeMetrics()
	var hc HistoryCache
	if withCache {
		hc = cache.NewHistoryCache(cache.NewTTLCache(), time.Minute)
	}
	svc := NewPredictionService(seededForest(), store, hc, pub, m, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, pub: pub, metrics: m}
}

func (f *fixture) seed(t *testing.T, symbol string, recs []models.HistoricalRecord) models.Stock {
	t.Helper()
	ctx := context.Background()
	st, err := f.store.EnsureStock(ctx, symbol, symbol+" Inc.")
	require.NoError(t, err)
	require.NoError(t, f.store.ReplaceHistory(ctx, st.ID, recs))
	return st
}

func TestPredictPayload(t *testing.T) {
	f := newFixture(t, false)
	resp := f.svc.PredictPayload(context.Background(), &models.PredictRequest{
		HistoricalData: series(100, 100, 100, 100, 100, 100),
		DaysAhead:      1,
	})
	require.NotNil(t, resp.PredictedPrice)
	assert.Equal(t, models.Price(100), *resp.PredictedPrice)
	assert.Equal(t, models.Percent(10), resp.Confidence)
	assert.Empty(t, f.pub.events, "inline predictions are not published")

	resp = f.svc.PredictPayload(context.Background(), &models.PredictRequest{})
	assert.Nil(t, resp.PredictedPrice)
	assert.Equal(t, models.Percent(0), resp.Confidence)
}

func TestPredictSymbolPersistsAndPublishes(t *testing.T) {
	f := newFixture(t, false)
	st := f.seed(t, "AAPL", series(100, 101, 102, 103, 104, 105, 106, 107))
	ctx := context.Background()

	res, err := f.svc.PredictSymbol(ctx, "aapl", 5, 30)
	require.NoError(t, err)
	require.True(t, res.Available())
	assert.Greater(t, *res.PredictedPrice, 107.0)

	stored, err := f.store.LatestPredictions(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, st.ID, stored[0].StockID)
	assert.Equal(t, 5, stored[0].DaysAhead)
	assert.Equal(t, models.AlgorithmRandomForest, stored[0].Algorithm)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), stored[0].PredictionDate)
	assert.Equal(t, models.Price(*res.PredictedPrice), stored[0].PredictedPrice)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "AAPL", f.pub.events[0].Symbol)
	assert.NotEmpty(t, f.pub.events[0].ID)
	assert.Equal(t, 1, f.metrics.predictions["AAPL"])
}

func TestPredictSymbolLookbackLimitsHistory(t *testing.T) {
	f := newFixture(t, false)
	// the old crash is outside a 6 row window
	f.seed(t, "MSFT", series(10, 500, 200, 200, 200, 200, 200, 200))

	res, err := f.svc.PredictSymbol(context.Background(), "MSFT", 1, 6)
	require.NoError(t, err)
	require.True(t, res.Available())
	assert.Equal(t, 5, res.Returns)
	assert.Equal(t, 200.0, *res.PredictedPrice)
}

func TestPredictSymbolEmptyHistory(t *testing.T) {
	f := newFixture(t, false)
	f.seed(t, "DIS", nil)

	res, err := f.svc.PredictSymbol(context.Background(), "DIS", 1, 30)
	require.NoError(t, err)
	assert.False(t, res.Available())
	assert.Equal(t, 0.0, res.Confidence)

	stored, err := f.store.LatestPredictions(context.Background(), "DIS", 10)
	require.NoError(t, err)
	assert.Empty(t, stored, "no row is written without a prediction")
	require.Len(t, f.pub.events, 1)
	assert.Nil(t, f.pub.events[0].PredictedPrice)
}

func TestPredictSymbolUnknownStock(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.PredictSymbol(context.Background(), "ZZZZ", 1, 30)
	require.ErrorIs(t, err, domrepo.ErrStockNotFound)
	assert.Empty(t, f.metrics.errors)
}

func TestPredictSymbolPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, false)
	f.pub.err = errors.New("broker down")
	f.seed(t, "V", series(50, 51, 52))

	res, err := f.svc.PredictSymbol(context.Background(), "V", 1, 30)
	require.NoError(t, err)
	assert.True(t, res.Available())
	assert.Equal(t, 1, f.metrics.errors["publish_event"])
}

func TestPredictSymbolUsesCache(t *testing.T) {
	f := newFixture(t, true)
	f.seed(t, "NVDA", series(10, 11, 12, 13, 14, 15))
	ctx := context.Background()

	_, err := f.svc.PredictSymbol(ctx, "NVDA", 1, 30)
	require.NoError(t, err)
	_, err = f.svc.PredictSymbol(ctx, "NVDA", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.historyCalls, "smaller window served from cache")

	_, err = f.svc.PredictSymbol(ctx, "NVDA", 1, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.historyCalls, "larger window goes to the store")
}

func TestPredictAll(t *testing.T) {
	f := newFixture(t, false)
	f.seed(t, "AAPL", series(100, 101, 102))
	f.seed(t, "TSLA", nil)

	rows, err := f.svc.PredictAll(context.Background(), 1, 30)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.NotNil(t, rows[0].Result.PredictedPrice)
	assert.Equal(t, "TSLA", rows[1].Symbol)
	assert.Nil(t, rows[1].Result.PredictedPrice)
	assert.Empty(t, rows[1].Error)
	assert.Len(t, f.pub.events, 2)
}

func TestPredictAllListFailure(t *testing.T) {
	f := newFixture(t, false)
	f.store.listErr = errors.New("db down")
	_, err := f.svc.PredictAll(context.Background(), 1, 30)
	require.Error(t, err)
	assert.Equal(t, 1, f.metrics.errors["store_list_stocks"])
}

func TestPredictions(t *testing.T) {
	f := newFixture(t, false)
	f.seed(t, "META", series(300, 301, 302))
	ctx := context.Background()
	_, err := f.svc.PredictSymbol(ctx, "META", 1, 30)
	require.NoError(t, err)

	got, err := f.svc.Predictions(ctx, "meta", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.Predictions(ctx, "NOPE", 5)
	assert.ErrorIs(t, err, domrepo.ErrStockNotFound)
}
