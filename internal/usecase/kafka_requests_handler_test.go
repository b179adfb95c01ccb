package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
)

type recordingPredictor struct {
	symbol              string
	daysAhead, lookback int
	err                 error
}

func (p *recordingPredictor) PredictSymbol(_ context.Context, symbol string, daysAhead, lookback int) (models.PredictionResult, error) {
	p.symbol, p.daysAhead, p.lookback = symbol, daysAhead, lookback
	return models.NoPrediction(), p.err
}

func TestKafkaRequestsHandlerDefaults(t *testing.T) {
	rp := &recordingPredictor{}
	h := NewKafkaRequestsHandler("prediction-requests", rp, newFakeMetrics())
	assert.Equal(t, "prediction-requests", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL"}`)))
	assert.Equal(t, "AAPL", rp.symbol)
	assert.Equal(t, 1, rp.daysAhead)
	assert.Equal(t, 365, rp.lookback)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"MSFT","daysAhead":0,"lookback":30}`)))
	assert.Equal(t, 0, rp.daysAhead, "explicit zero is kept")
	assert.Equal(t, 30, rp.lookback)
}

func TestKafkaRequestsHandlerRejects(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaRequestsHandler("t", &recordingPredictor{}, m)

	err := h.Handle(context.Background(), []byte(`not json`))
	require.ErrorIs(t, err, models.ErrInvalidPayload)
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])

	err = h.Handle(context.Background(), []byte(`{"daysAhead":3}`))
	require.ErrorIs(t, err, models.ErrInvalidPayload)
	assert.Equal(t, 1, m.errors["consumer_validate"])
}

func TestKafkaRequestsHandlerPropagatesFailure(t *testing.T) {
	m := newFakeMetrics()
	boom := errors.New("store down")
	h := NewKafkaRequestsHandler("t", &recordingPredictor{err: boom}, m)

	err := h.Handle(context.Background(), []byte(`{"symbol":"V"}`))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.errors["consumer_predict"])
}
