package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	applogger "StockPredict/pkg/logger"
)

// stockRow maps the stocks table.
type stockRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Symbol      string    `gorm:"column:symbol;type:varchar(16);uniqueIndex;not null"`
	CompanyName string    `gorm:"column:company_name;type:varchar(255)"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (stockRow) TableName() string { return "stocks" }

// historyRow maps the historical_data table.
type historyRow struct {
	ID         int64               `gorm:"primaryKey;autoIncrement"`
	StockID    int64               `gorm:"column:stock_id;uniqueIndex:idx_history_stock_date;not null"`
	Date       time.Time           `gorm:"column:date;type:date;uniqueIndex:idx_history_stock_date;not null"`
	OpenPrice  decimal.NullDecimal `gorm:"column:open_price;type:decimal(12,2)"`
	HighPrice  decimal.NullDecimal `gorm:"column:high_price;type:decimal(12,2)"`
	LowPrice   decimal.NullDecimal `gorm:"column:low_price;type:decimal(12,2)"`
	ClosePrice decimal.NullDecimal `gorm:"column:close_price;type:decimal(12,2)"`
	Volume     *int64              `gorm:"column:volume"`
	AdjClose   decimal.NullDecimal `gorm:"column:adj_close;type:decimal(12,2)"`
}

func (historyRow) TableName() string { return "historical_data" }

// predictionRow maps the predictions table.
type predictionRow struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	StockID         int64           `gorm:"column:stock_id;index:idx_predictions_stock_created;not null"`
	PredictionDate  time.Time       `gorm:"column:prediction_date;type:date"`
	DaysAhead       int             `gorm:"column:days_ahead"`
	PredictedPrice  decimal.Decimal `gorm:"column:predicted_price;type:decimal(12,2)"`
	ConfidenceScore decimal.Decimal `gorm:"column:confidence_score;type:decimal(5,2)"`
	AlgorithmUsed   string          `gorm:"column:algorithm_used;type:varchar(50)"`
	CreatedAt       time.Time       `gorm:"column:created_at;index:idx_predictions_stock_created"`
}

func (predictionRow) TableName() string { return "predictions" }

// MySQLOptions tunes the gorm pool.
type MySQLOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// MySQLStore implements domrepo.Store on the stocks/historical_data/predictions MySQL schema via gorm.
type MySQLStore struct {
	db          *gorm.DB
	autoMigrate bool
	l           *applogger.Logger
}

// OpenMySQL connects with dsn and configures the pool.
func OpenMySQL(dsn string, opts MySQLOptions) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return NewMySQLStore(db, opts.AutoMigrate), nil
}

func NewMySQLStore(db *gorm.DB, autoMigrate bool) *MySQLStore {
	return &MySQLStore{db: db, autoMigrate: autoMigrate}
}

// SetLogger injects a structured logger.
func (s *MySQLStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *MySQLStore) Init(ctx context.Context) error {
	if !s.autoMigrate {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&stockRow{}, &historyRow{}, &predictionRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *MySQLStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	var rows []stockRow
	if err := s.db.WithContext(ctx).Order("symbol").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	out := make([]models.Stock, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *MySQLStore) GetStock(ctx context.Context, symbol string) (models.Stock, error) {
	var row stockRow
	err := s.db.WithContext(ctx).Where("symbol = ?", strings.ToUpper(symbol)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Stock{}, domrepo.ErrStockNotFound
	}
	if err != nil {
		return models.Stock{}, fmt.Errorf("get stock: %w", err)
	}
	return row.toModel(), nil
}

func (s *MySQLStore) EnsureStock(ctx context.Context, symbol, companyName string) (models.Stock, error) {
	row := stockRow{Symbol: strings.ToUpper(symbol), CompanyName: companyName}
	err := s.db.WithContext(ctx).
		Where(stockRow{Symbol: row.Symbol}).
		Attrs(stockRow{CompanyName: companyName}).
		FirstOrCreate(&row).Error
	if err != nil {
		return models.Stock{}, fmt.Errorf("ensure stock: %w", err)
	}
	return row.toModel(), nil
}

func (s *MySQLStore) LatestHistory(ctx context.Context, symbol string, n int) ([]models.HistoricalRecord, error) {
	st, err := s.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var rows []historyRow
	err = s.db.WithContext(ctx).
		Where("stock_id = ?", st.ID).
		Order("date DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		if s.l != nil {
			s.l.Error("mysql latest_history query error", applogger.String("symbol", st.Symbol), applogger.Error(err))
		}
		return nil, fmt.Errorf("latest history: %w", err)
	}
	out := make([]models.HistoricalRecord, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.toModel()
	}
	return out, nil
}

func (s *MySQLStore) ReplaceHistory(ctx context.Context, stockID int64, records []models.HistoricalRecord) error {
	rows := make([]historyRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, newHistoryRow(stockID, r))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stock_id = ?", stockID).Delete(&historyRow{}).Error; err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
}

func (s *MySQLStore) SavePrediction(ctx context.Context, p models.StoredPrediction) error {
	row := newPredictionRow(p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if s.l != nil {
			s.l.Error("mysql save_prediction error", applogger.String("symbol", p.Symbol), applogger.Error(err))
		}
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (s *MySQLStore) LatestPredictions(ctx context.Context, symbol string, limit int) ([]models.StoredPrediction, error) {
	st, err := s.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	var rows []predictionRow
	err = s.db.WithContext(ctx).
		Where("stock_id = ?", st.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest predictions: %w", err)
	}
	out := make([]models.StoredPrediction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel(st.Symbol))
	}
	return out, nil
}

func (s *MySQLStore) ClearPredictions(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&predictionRow{}).Error; err != nil {
		return fmt.Errorf("clear predictions: %w", err)
	}
	return nil
}

func (s *MySQLStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r stockRow) toModel() models.Stock {
	return models.Stock{ID: r.ID, Symbol: r.Symbol, CompanyName: r.CompanyName}
}

func newHistoryRow(stockID int64, r models.HistoricalRecord) historyRow {
	row := historyRow{
		StockID:    stockID,
		Date:       r.Date,
		OpenPrice:  toNullDecimal(r.Open),
		HighPrice:  toNullDecimal(r.High),
		LowPrice:   toNullDecimal(r.Low),
		ClosePrice: toNullDecimal(closeValue(r)),
		AdjClose:   toNullDecimal(r.AdjClose),
	}
	if r.Volume != nil {
		v := int64(*r.Volume)
		row.Volume = &v
	}
	return row
}

func (r historyRow) toModel() models.HistoricalRecord {
	rec := models.HistoricalRecord{
		Date:       r.Date,
		Open:       fromNullDecimal(r.OpenPrice),
		High:       fromNullDecimal(r.HighPrice),
		Low:        fromNullDecimal(r.LowPrice),
		ClosePrice: fromNullDecimal(r.ClosePrice),
		AdjClose:   fromNullDecimal(r.AdjClose),
	}
	if r.Volume != nil {
		rec.Volume = models.Float(float64(*r.Volume))
	}
	return rec
}

func newPredictionRow(p models.StoredPrediction) predictionRow {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	algo := p.Algorithm
	if algo == "" {
		algo = models.AlgorithmRandomForest
	}
	return predictionRow{
		StockID:         p.StockID,
		PredictionDate:  p.PredictionDate,
		DaysAhead:       p.DaysAhead,
		PredictedPrice:  decimal.NewFromFloat(float64(p.PredictedPrice)).Round(2),
		ConfidenceScore: decimal.NewFromFloat(float64(p.Confidence)).Round(2),
		AlgorithmUsed:   algo,
		CreatedAt:       created,
	}
}

func (r predictionRow) toModel(symbol string) models.StoredPrediction {
	return models.StoredPrediction{
		ID:             strconv.FormatInt(r.ID, 10),
		StockID:        r.StockID,
		Symbol:         symbol,
		PredictionDate: r.PredictionDate,
		DaysAhead:      r.DaysAhead,
		PredictedPrice: models.Price(r.PredictedPrice.InexactFloat64()),
		Confidence:     models.Percent(r.ConfidenceScore.InexactFloat64()),
		Algorithm:      r.AlgorithmUsed,
		CreatedAt:      r.CreatedAt,
	}
}

func toNullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

func fromNullDecimal(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	return models.Float(d.Decimal.InexactFloat64())
}

var _ domrepo.Store = (*MySQLStore)(nil)
