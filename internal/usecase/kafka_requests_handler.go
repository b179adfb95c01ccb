package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	pkgkafka "StockPredict/pkg/kafka"
)

// symbolPredictor is the part of PredictionService the handler drives.
type symbolPredictor interface {
	PredictSymbol(ctx context.Context, symbol string, daysAhead, lookback int) (models.PredictionResult, error)
}

// KafkaRequestsHandler consumes prediction jobs and runs them against stored
// history. Results leave through the service's event publisher.
type KafkaRequestsHandler struct {
	topic    string
	svc      symbolPredictor
	metrics  domrepo.Metrics
	validate *validator.Validate
}

func NewKafkaRequestsHandler(topic string, svc symbolPredictor, metrics domrepo.Metrics) *KafkaRequestsHandler {
	return &KafkaRequestsHandler{topic: topic, svc: svc, metrics: metrics, validate: validator.New()}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, daysAhead, lookback}
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var job models.PredictionJob
	if err := defaults.Set(&job); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &job); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}
	if err := h.validate.Struct(job); err != nil {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}

	start := time.Now()
	_, err := h.svc.PredictSymbol(ctx, job.Symbol, job.DaysAhead, job.Lookback)
	h.metrics.RecordLatency("consumer_predict_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_predict")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
