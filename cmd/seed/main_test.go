package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
	"StockPredict/internal/repository"
	"StockPredict/internal/service/cache"
	"StockPredict/internal/services/synth"
	applogger "StockPredict/pkg/logger"
)

func newSeeder(store *repository.MemoryStore) *seeder {
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &seeder{
		store: store,
		gen:   synth.NewGenerator(synth.WithSeed(1), synth.WithClock(clock)),
		log:   applogger.Nop(),
	}
}

func TestSeedReplacesHistory(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	s := newSeeder(store)

	stocks := selectStocks(synth.DefaultStocks, []string{"aapl,msft"})
	require.NoError(t, s.run(ctx, stocks, 30, false))
	// second run must replace, not append
	require.NoError(t, s.run(ctx, stocks, 10, false))

	listed, err := store.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "AAPL", listed[0].Symbol)
	assert.Equal(t, "Apple Inc.", listed[0].CompanyName)

	rows, err := store.LatestHistory(ctx, "MSFT", 100)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), rows[len(rows)-1].Date)
}

func TestSeedClearsPredictions(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	st, err := store.EnsureStock(ctx, "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, store.SavePrediction(ctx, models.StoredPrediction{StockID: st.ID, Symbol: "AAPL", PredictedPrice: 1}))

	require.NoError(t, newSeeder(store).run(ctx, []models.Stock{{Symbol: "AAPL"}}, 5, true))

	preds, err := store.LatestPredictions(ctx, "AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestSeedInvalidatesHistoryCache(t *testing.T) {
	ctx := context.Background()
	hc := cache.NewHistoryCache(cache.NewTTLCache(), time.Hour)
	require.NoError(t, hc.Set(ctx, "AAPL", 5, []models.HistoricalRecord{{ClosePrice: models.Float(1)}}))

	s := newSeeder(repository.NewMemoryStore())
	s.cache = hc
	require.NoError(t, s.run(ctx, []models.Stock{{Symbol: "AAPL"}}, 5, false))

	_, ok := hc.Get(ctx, "AAPL", 5)
	assert.False(t, ok)
}

func TestSeedRejectsBadInput(t *testing.T) {
	s := newSeeder(repository.NewMemoryStore())
	assert.Error(t, s.run(context.Background(), synth.DefaultStocks, 0, false))
	assert.Error(t, s.run(context.Background(), nil, 5, false))
}

func TestSelectStocks(t *testing.T) {
	assert.Equal(t, synth.DefaultStocks, selectStocks(synth.DefaultStocks, nil))

	got := selectStocks(synth.DefaultStocks, []string{" tsla ", "TSLA", "ZZZ"})
	require.Len(t, got, 2)
	assert.Equal(t, "Tesla Inc.", got[0].CompanyName)
	assert.Equal(t, models.Stock{Symbol: "ZZZ", CompanyName: "ZZZ"}, got[1])
}
