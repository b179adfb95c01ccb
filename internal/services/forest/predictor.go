package forest

import (
    "StockPredict/internal/domain/models"
    domsvc "StockPredict/internal/domain/service"
    "StockPredict/internal/services/features"
)

type Option func(*Predictor)

// WithSourceFactory overrides the random source factory derived from Params.Seed.
func WithSourceFactory(f SourceFactory) Option {
    return func(p *Predictor) {
        if f != nil {
            p.sources = f
        }
    }
}

// Predictor is the stateless forecasting pipeline: returns, forest drift,
// horizon scaling, projection and confidence. Safe for concurrent use.
type Predictor struct {
    params  Params
    sources SourceFactory
}

func New(params Params, opts ...Option) *Predictor {
    p := &Predictor{params: params, sources: NewSourceFactory(params.Seed)}
    for _, opt := range opts {
        opt(p)
    }
    return p
}

func (p *Predictor) Params() Params { return p.params }

// Predict forecasts the close daysAhead periods after the last record.
func (p *Predictor) Predict(records []models.HistoricalRecord, daysAhead int) models.PredictionResult {
    prices, returns := features.BuildSeries(records)
    if !features.HasUsablePrice(prices) {
        return models.NoPrediction()
    }
    lastClose := prices[len(prices)-1]

    drift := Aggregate(p.sources(), returns, p.params)
    scaled := ScaleDrift(drift, daysAhead, p.params.HorizonDivisor)

    price, ok := Project(lastClose, scaled)
    if !ok {
        return models.NoPrediction()
    }
    return models.PredictionResult{
        PredictedPrice: &price,
        Confidence:     Confidence(scaled, p.params.ConfidenceFloor, p.params.ConfidenceCeiling),
        LastClose:      lastClose,
        EnsembleDrift:  drift,
        ScaledDrift:    scaled,
        EffectiveDays:  EffectiveDays(daysAhead),
        Returns:        len(returns),
    }
}

var _ domsvc.Forecaster = (*Predictor)(nil)
