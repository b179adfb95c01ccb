package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"StockPredict/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	predictedPrice *prometheus.GaugeVec
	confidence     *prometheus.GaugeVec
	drift          *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredict_predictions_total",
				Help: "Total number of predictions by symbol and outcome",
			},
			[]string{"symbol", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpredict_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		predictedPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpredict_predicted_price",
				Help: "Last predicted price for a symbol",
			},
			[]string{"symbol"},
		),
		confidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpredict_confidence_percent",
				Help: "Confidence of the last prediction for a symbol",
			},
			[]string{"symbol"},
		),
		drift: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpredict_scaled_drift",
				Help: "Horizon-scaled ensemble drift of the last prediction for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpredict_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records the outcome of a symbol prediction.
func (r *Recorder) RecordPrediction(symbol string, res models.PredictionResult) {
	if !res.Available() {
		r.predictions.WithLabelValues(symbol, "none").Inc()
		return
	}
	r.predictions.WithLabelValues(symbol, "ok").Inc()
	r.predictedPrice.WithLabelValues(symbol).Set(*res.PredictedPrice)
	r.confidence.WithLabelValues(symbol).Set(res.Confidence)
	r.drift.WithLabelValues(symbol).Set(res.ScaledDrift)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
