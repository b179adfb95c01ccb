package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestMemoryStoreEnsureAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetStock(ctx, "AAPL")
	require.ErrorIs(t, err, domrepo.ErrStockNotFound)

	a, err := s.EnsureStock(ctx, "aapl", "Apple Inc.")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)

	again, err := s.EnsureStock(ctx, "AAPL", "ignored")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	_, err = s.EnsureStock(ctx, "MSFT", "Microsoft")
	require.NoError(t, err)
	list, err := s.ListStocks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Symbol)
	assert.Equal(t, "MSFT", list[1].Symbol)
}

func TestMemoryStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	st, _ := s.EnsureStock(ctx, "TSLA", "Tesla")

	// out of order on purpose
	recs := []models.HistoricalRecord{
		{Date: day(2), ClosePrice: models.Float(102)},
		{Date: day(0), ClosePrice: models.Float(100)},
		{Date: day(1), ClosePrice: models.Float(101)},
	}
	require.NoError(t, s.ReplaceHistory(ctx, st.ID, recs))

	got, err := s.LatestHistory(ctx, "tsla", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 101.0, got[0].ClosingPrice())
	assert.Equal(t, 102.0, got[1].ClosingPrice())

	require.NoError(t, s.ReplaceHistory(ctx, st.ID, nil))
	got, err = s.LatestHistory(ctx, "TSLA", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.LatestHistory(ctx, "NOPE", 10)
	assert.ErrorIs(t, err, domrepo.ErrStockNotFound)
}

func TestMemoryStorePredictions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SavePrediction(ctx, models.StoredPrediction{
			Symbol: "AAPL", PredictedPrice: models.Price(100 + i),
		}))
	}
	require.NoError(t, s.SavePrediction(ctx, models.StoredPrediction{Symbol: "MSFT"}))

	got, err := s.LatestPredictions(ctx, "aapl", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Price(102), got[0].PredictedPrice)
	assert.Equal(t, models.Price(101), got[1].PredictedPrice)
	assert.NotEmpty(t, got[0].ID)

	require.NoError(t, s.ClearPredictions(ctx))
	got, err = s.LatestPredictions(ctx, "AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
