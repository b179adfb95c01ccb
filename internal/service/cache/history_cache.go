package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"StockPredict/internal/domain/models"
)

// HistoryCache keeps the most recently loaded history window per symbol.
// A cached window of n rows answers any request for m <= n rows.
type HistoryCache struct {
	c   BytesCache
	ttl time.Duration
}

type historyEntry struct {
	N       int                       `json:"n"`
	Records []models.HistoricalRecord `json:"records"`
}

func NewHistoryCache(c BytesCache, ttl time.Duration) *HistoryCache {
	return &HistoryCache{c: c, ttl: ttl}
}

func historyKey(symbol string) string {
	return "history:" + strings.ToUpper(symbol)
}

// Get returns the newest n cached rows for symbol.
func (h *HistoryCache) Get(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, bool) {
	if h == nil || h.c == nil {
		return nil, false
	}
	b, ok, err := h.c.GetBytes(ctx, historyKey(symbol))
	if err != nil || !ok {
		return nil, false
	}
	var e historyEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false
	}
	if e.N < n {
		return nil, false
	}
	if len(e.Records) > n {
		e.Records = e.Records[len(e.Records)-n:]
	}
	return e.Records, true
}

// Set stores the rows loaded for a lookback of n.
func (h *HistoryCache) Set(ctx context.Context, symbol string, n int, records []models.HistoricalRecord) error {
	if h == nil || h.c == nil {
		return nil
	}
	b, err := json.Marshal(historyEntry{N: n, Records: records})
	if err != nil {
		return err
	}
	return h.c.SetBytes(ctx, historyKey(symbol), b, h.ttl)
}

func (h *HistoryCache) Invalidate(ctx context.Context, symbol string) error {
	if h == nil || h.c == nil {
		return nil
	}
	return h.c.Delete(ctx, historyKey(symbol))
}
