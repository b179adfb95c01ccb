package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
)

type recordingProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	return nil
}

type failingPublisher struct{ err error }

func (f failingPublisher) PublishPrediction(context.Context, models.PredictionEvent) error {
	return f.err
}

func (f failingPublisher) Close() error { return nil }

func TestKafkaPublisherKeysBySymbol(t *testing.T) {
	rp := &recordingProducer{}
	pub := NewKafkaPublisher(rp, "prediction-events")
	ev := models.PredictionEvent{ID: "x", Symbol: "NVDA"}

	require.NoError(t, pub.PublishPrediction(context.Background(), ev))
	assert.Equal(t, "prediction-events", rp.topic)
	assert.Equal(t, []byte("NVDA"), rp.key)
	assert.Equal(t, ev, rp.value)

	require.NoError(t, pub.Close())
	assert.True(t, rp.closed)
}

func TestFanoutPublisherJoinsErrors(t *testing.T) {
	rp := &recordingProducer{}
	boom := errors.New("boom")
	f := NewFanoutPublisher(nil, failingPublisher{err: boom}, NewKafkaPublisher(rp, "t"))

	err := f.PublishPrediction(context.Background(), models.PredictionEvent{Symbol: "V"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []byte("V"), rp.key, "later publishers still receive the event")

	require.NoError(t, f.Close())
	assert.True(t, rp.closed)
}
