package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	pkgch "StockPredict/pkg/clickhouse"
	applogger "StockPredict/pkg/logger"
)

// ClickHouseSchema returns the DDL for the stock tables in database.
func ClickHouseSchema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.stocks (
            id UInt64,
            symbol LowCardinality(String),
            company_name String,
            created_at DateTime64(3) DEFAULT now64(3)
        ) ENGINE = ReplacingMergeTree
        ORDER BY symbol`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.historical_data (
            stock_id UInt64,
            date Date,
            open_price Nullable(Float64),
            high_price Nullable(Float64),
            low_price Nullable(Float64),
            close_price Nullable(Float64),
            volume Nullable(Float64),
            adj_close Nullable(Float64)
        ) ENGINE = ReplacingMergeTree
        ORDER BY (stock_id, date)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
            id UUID,
            stock_id UInt64,
            symbol LowCardinality(String),
            prediction_date Date,
            days_ahead Int32,
            predicted_price Float64,
            confidence_score Float64,
            algorithm_used LowCardinality(String),
            created_at DateTime64(3)
        ) ENGINE = MergeTree
        ORDER BY (symbol, created_at)`, database),
	}
}

// CHStore implements domrepo.Store backed by ClickHouse.
type CHStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHStore(ch *pkgch.Client) *CHStore {
	return &CHStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHStore) table(name string) string {
	if db := s.ch.Database(); db != "" {
		return db + "." + name
	}
	return name
}

func (s *CHStore) logErr(msg string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, append(fields, applogger.Error(err))...)
}

func (s *CHStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, ClickHouseSchema(s.ch.Database()))
}

func (s *CHStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	q := fmt.Sprintf(`SELECT id, symbol, company_name FROM %s FINAL ORDER BY symbol`, s.table("stocks"))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.logErr("clickhouse list_stocks query error", err)
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	var out []models.Stock
	for rows.Next() {
		var (
			id uint64
			st models.Stock
		)
		if err := rows.Scan(&id, &st.Symbol, &st.CompanyName); err != nil {
			s.logErr("clickhouse list_stocks scan error", err)
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		st.ID = int64(id)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHStore) GetStock(ctx context.Context, symbol string) (models.Stock, error) {
	symbol = strings.ToUpper(symbol)
	q := fmt.Sprintf(`SELECT id, symbol, company_name FROM %s FINAL WHERE symbol = ? LIMIT 1`, s.table("stocks"))
	var (
		id uint64
		st models.Stock
	)
	err := s.db.QueryRowContext(ctx, q, symbol).Scan(&id, &st.Symbol, &st.CompanyName)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stock{}, domrepo.ErrStockNotFound
	}
	if err != nil {
		s.logErr("clickhouse get_stock query error", err, applogger.String("symbol", symbol))
		return models.Stock{}, fmt.Errorf("get stock: %w", err)
	}
	st.ID = int64(id)
	return st, nil
}

// EnsureStock assigns max(id)+1 to new symbols. Concurrent seeders may race;
// seeding is expected to run from a single process.
func (s *CHStore) EnsureStock(ctx context.Context, symbol, companyName string) (models.Stock, error) {
	st, err := s.GetStock(ctx, symbol)
	if err == nil || !errors.Is(err, domrepo.ErrStockNotFound) {
		return st, err
	}
	var maxID uint64
	q := fmt.Sprintf(`SELECT max(id) FROM %s`, s.table("stocks"))
	if err := s.db.QueryRowContext(ctx, q).Scan(&maxID); err != nil {
		return models.Stock{}, fmt.Errorf("next stock id: %w", err)
	}
	st = models.Stock{ID: int64(maxID + 1), Symbol: strings.ToUpper(symbol), CompanyName: companyName}
	ins := fmt.Sprintf(`INSERT INTO %s (id, symbol, company_name) VALUES (?, ?, ?)`, s.table("stocks"))
	if _, err := s.db.ExecContext(ctx, ins, uint64(st.ID), st.Symbol, st.CompanyName); err != nil {
		s.logErr("clickhouse insert stock error", err, applogger.String("symbol", st.Symbol))
		return models.Stock{}, fmt.Errorf("insert stock: %w", err)
	}
	return st, nil
}

func (s *CHStore) LatestHistory(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error) {
	st, err := s.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, open_price, high_price, low_price, close_price, volume, adj_close
        FROM %s FINAL
        WHERE stock_id = ?
        ORDER BY date DESC
        LIMIT ?
    `, s.table("historical_data"))
	rows, err := s.db.QueryContext(ctx, q, uint64(st.ID), n)
	if err != nil {
		s.logErr("clickhouse latest_history query error", err, applogger.String("symbol", st.Symbol))
		return nil, fmt.Errorf("latest history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoricalRecord, 0, n)
	for rows.Next() {
		var (
			r                              models.HistoricalRecord
			open, high, low, cl, vol, adjc sql.NullFloat64
		)
		if err := rows.Scan(&r.Date, &open, &high, &low, &cl, &vol, &adjc); err != nil {
			s.logErr("clickhouse latest_history scan error", err, applogger.String("symbol", st.Symbol))
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Open, r.High, r.Low = nullable(open), nullable(high), nullable(low)
		r.ClosePrice, r.Volume, r.AdjClose = nullable(cl), nullable(vol), nullable(adjc)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest_history",
			applogger.String("symbol", st.Symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return out, nil
}

// ReplaceHistory deletes the stock's rows synchronously, then inserts the new
// rows in a single batch.
func (s *CHStore) ReplaceHistory(ctx context.Context, stockID int64, records []models.HistoricalRecord) error {
	del := fmt.Sprintf(`ALTER TABLE %s DELETE WHERE stock_id = ? SETTINGS mutations_sync = 1`, s.table("historical_data"))
	if _, err := s.db.ExecContext(ctx, del, uint64(stockID)); err != nil {
		s.logErr("clickhouse delete history error", err, applogger.Int64("stock_id", stockID))
		return fmt.Errorf("delete history: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (stock_id, date, open_price, high_price, low_price, close_price, volume, adj_close)`,
		s.table("historical_data")))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, uint64(stockID), r.Date,
			r.Open, r.High, r.Low, closeValue(r), r.Volume, r.AdjClose); err != nil {
			_ = tx.Rollback()
			s.logErr("clickhouse append history error", err, applogger.Int64("stock_id", stockID))
			return fmt.Errorf("append history: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("clickhouse send history batch error", err, applogger.Int64("stock_id", stockID))
		return fmt.Errorf("send history batch: %w", err)
	}
	return nil
}

func (s *CHStore) SavePrediction(ctx context.Context, p models.StoredPrediction) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		id = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, stock_id, symbol, prediction_date, days_ahead, predicted_price, confidence_score, algorithm_used, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table("predictions"))
	_, err = s.db.ExecContext(ctx, q, id, uint64(p.StockID), p.Symbol, p.PredictionDate, int32(p.DaysAhead),
		float64(p.PredictedPrice), float64(p.Confidence), p.Algorithm, p.CreatedAt)
	if err != nil {
		s.logErr("clickhouse save_prediction error", err, applogger.String("symbol", p.Symbol))
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (s *CHStore) LatestPredictions(ctx context.Context, symbol string, limit int) ([]models.StoredPrediction, error) {
	q := fmt.Sprintf(`
        SELECT toString(id), stock_id, symbol, prediction_date, days_ahead, predicted_price, confidence_score, algorithm_used, created_at
        FROM %s
        WHERE symbol = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, s.table("predictions"))
	rows, err := s.db.QueryContext(ctx, q, strings.ToUpper(symbol), limit)
	if err != nil {
		s.logErr("clickhouse latest_predictions query error", err, applogger.String("symbol", symbol))
		return nil, fmt.Errorf("latest predictions: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoredPrediction, 0, limit)
	for rows.Next() {
		var (
			p         models.StoredPrediction
			stockID   uint64
			days      int32
			price, cf float64
		)
		if err := rows.Scan(&p.ID, &stockID, &p.Symbol, &p.PredictionDate, &days, &price, &cf, &p.Algorithm, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.StockID, p.DaysAhead = int64(stockID), int(days)
		p.PredictedPrice, p.Confidence = models.Price(price), models.Percent(cf)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CHStore) ClearPredictions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE TABLE IF EXISTS %s`, s.table("predictions"))); err != nil {
		s.logErr("clickhouse clear_predictions error", err)
		return fmt.Errorf("clear predictions: %w", err)
	}
	return nil
}

func (s *CHStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHStore) Close() error { return s.ch.Close() }

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// closeValue stores the resolved close so rows written from either field
// name read back through close_price.
func closeValue(r models.HistoricalRecord) *float64 {
	if c := r.ClosingPrice(); c != 0 {
		return &c
	}
	return r.ClosePrice
}

var _ domrepo.Store = (*CHStore)(nil)
