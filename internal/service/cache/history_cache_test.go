package cache

import (
	"context"
	"testing"
	"time"

	"StockPredict/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(vals ...float64) []models.HistoricalRecord {
	out := make([]models.HistoricalRecord, len(vals))
	for i, v := range vals {
		out[i] = models.HistoricalRecord{
			Date:       time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			ClosePrice: models.Float(v),
		}
	}
	return out
}

func TestHistoryCacheWindow(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryCache(NewTTLCache(), time.Minute)

	_, ok := h.Get(ctx, "AAPL", 3)
	assert.False(t, ok)

	require.NoError(t, h.Set(ctx, "aapl", 5, rows(1, 2, 3, 4, 5)))

	got, ok := h.Get(ctx, "AAPL", 3)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, 3.0, got[0].ClosingPrice())
	assert.Equal(t, 5.0, got[2].ClosingPrice())
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got[2].Date)

	// a wider window than cached is a miss
	_, ok = h.Get(ctx, "AAPL", 10)
	assert.False(t, ok)

	// short histories are complete for any wider lookback they were loaded with
	require.NoError(t, h.Set(ctx, "MSFT", 365, rows(7, 8)))
	got, ok = h.Get(ctx, "MSFT", 100)
	require.True(t, ok)
	assert.Len(t, got, 2)

	require.NoError(t, h.Invalidate(ctx, "aapl"))
	_, ok = h.Get(ctx, "AAPL", 3)
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "forever", []byte("f"), 0))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(b))

	now = now.Add(time.Minute)
	_, ok, _ = c.GetBytes(ctx, "k")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "forever")
	assert.True(t, ok)
}

func TestNilHistoryCache(t *testing.T) {
	var h *HistoryCache
	_, ok := h.Get(context.Background(), "X", 1)
	assert.False(t, ok)
	assert.NoError(t, h.Set(context.Background(), "X", 1, nil))
	assert.NoError(t, h.Invalidate(context.Background(), "X"))
}
