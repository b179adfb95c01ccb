package synth

import (
    "math/rand/v2"
    "time"

    "StockPredict/internal/domain/models"
    xutil "StockPredict/pkg/util"
)

// DefaultStocks is the instrument list seeded into an empty database.
var DefaultStocks = []models.Stock{
    {Symbol: "AAPL", CompanyName: "Apple Inc."},
    {Symbol: "GOOGL", CompanyName: "Alphabet Inc."},
    {Symbol: "MSFT", CompanyName: "Microsoft Corporation"},
    {Symbol: "AMZN", CompanyName: "Amazon.com Inc."},
    {Symbol: "TSLA", CompanyName: "Tesla Inc."},
    {Symbol: "NVDA", CompanyName: "NVIDIA Corporation"},
    {Symbol: "META", CompanyName: "Meta Platforms Inc."},
    {Symbol: "NFLX", CompanyName: "Netflix Inc."},
    {Symbol: "DIS", CompanyName: "The Walt Disney Company"},
    {Symbol: "V", CompanyName: "Visa Inc."},
}

// Generator produces random-walk daily bars for demo and test data.
type Generator struct {
    rng *rand.Rand
    now func() time.Time
}

type Option func(*Generator)

// WithSeed makes the generated series reproducible.
func WithSeed(seed uint64) Option {
    return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed>>1|1)) }
}

// WithClock overrides the reference time; the last generated day is the day before it.
func WithClock(now func() time.Time) Option {
    return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
    g := &Generator{
        rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
        now: time.Now,
    }
    for _, opt := range opts {
        opt(g)
    }
    return g
}

// Generate returns days bars ending yesterday. The walk starts from a price
// uniform in [50, 500) and moves by up to 5% per day.
func (g *Generator) Generate(days int) []models.HistoricalRecord {
    if days <= 0 {
        return []models.HistoricalRecord{}
    }
    start := xutil.StartOfDay(g.now().UTC()).AddDate(0, 0, -days)
    price := g.uniform(50, 500)

    out := make([]models.HistoricalRecord, 0, days)
    for i := 0; i < days; i++ {
        price *= 1 + g.uniform(-0.05, 0.05)
        open := price
        high := open * g.uniform(1.0, 1.03)
        low := open * g.uniform(0.97, 1.0)
        volume := float64(100000 + g.rng.IntN(5000000-100000+1))
        out = append(out, models.HistoricalRecord{
            Date:       start.AddDate(0, 0, i),
            Open:       models.Float(round2(open)),
            High:       models.Float(round2(high)),
            Low:        models.Float(round2(low)),
            ClosePrice: models.Float(round2(price)),
            AdjClose:   models.Float(round2(price)),
            Volume:     models.Float(volume),
        })
    }
    return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
    return lo + (hi-lo)*g.rng.Float64()
}
