package repository

import (
	"context"
	"errors"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
)

// producer is the subset of *pkgkafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher publishes prediction events keyed by symbol so each symbol
// lands on a single partition.
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher for topic.
func NewKafkaPublisher(p producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) PublishPrediction(ctx context.Context, ev models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// FanoutPublisher delivers each event to every publisher and joins the errors.
type FanoutPublisher struct {
	pubs []domrepo.EventPublisher
}

// NewFanoutPublisher skips nil publishers.
func NewFanoutPublisher(pubs ...domrepo.EventPublisher) *FanoutPublisher {
	f := &FanoutPublisher{}
	for _, p := range pubs {
		if p != nil {
			f.pubs = append(f.pubs, p)
		}
	}
	return f
}

func (f *FanoutPublisher) PublishPrediction(ctx context.Context, ev models.PredictionEvent) error {
	var errs []error
	for _, p := range f.pubs {
		if err := p.PublishPrediction(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutPublisher) Close() error {
	var errs []error
	for _, p := range f.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = (*FanoutPublisher)(nil)
)
