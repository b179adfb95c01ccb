package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
)

// MemoryStore keeps stocks, history and predictions in process memory.
// It backs the "memory" backend and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	stocks      map[string]models.Stock
	history     map[int64][]models.HistoricalRecord
	predictions []models.StoredPrediction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stocks:  make(map[string]models.Stock),
		history: make(map[int64][]models.HistoricalRecord),
	}
}

func (s *MemoryStore) Init(ctx context.Context) error { return nil }

func (s *MemoryStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Stock, 0, len(s.stocks))
	for _, st := range s.stocks {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *MemoryStore) GetStock(ctx context.Context, symbol string) (models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[strings.ToUpper(symbol)]
	if !ok {
		return models.Stock{}, domrepo.ErrStockNotFound
	}
	return st, nil
}

func (s *MemoryStore) EnsureStock(ctx context.Context, symbol, companyName string) (models.Stock, error) {
	symbol = strings.ToUpper(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stocks[symbol]; ok {
		return st, nil
	}
	s.nextID++
	st := models.Stock{ID: s.nextID, Symbol: symbol, CompanyName: companyName}
	s.stocks[symbol] = st
	return st, nil
}

func (s *MemoryStore) LatestHistory(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error) {
	st, err := s.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.history[st.ID]
	if n > 0 && len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	out := make([]models.HistoricalRecord, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemoryStore) ReplaceHistory(ctx context.Context, stockID int64, records []models.HistoricalRecord) error {
	rows := make([]models.HistoricalRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	s.mu.Lock()
	s.history[stockID] = rows
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SavePrediction(ctx context.Context, p models.StoredPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = strconv.Itoa(len(s.predictions) + 1)
	}
	s.predictions = append(s.predictions, p)
	return nil
}

func (s *MemoryStore) LatestPredictions(ctx context.Context, symbol string, limit int) ([]models.StoredPrediction, error) {
	symbol = strings.ToUpper(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StoredPrediction, 0, limit)
	for i := len(s.predictions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.predictions[i].Symbol == symbol {
			out = append(out, s.predictions[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) ClearPredictions(ctx context.Context) error {
	s.mu.Lock()
	s.predictions = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

var _ domrepo.Store = (*MemoryStore)(nil)
