package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"StockPredict/internal/domain/models"
	xlogger "StockPredict/pkg/logger"
)

// BatchPredictor runs a prediction for every tracked stock.
type BatchPredictor interface {
	PredictAll(ctx context.Context, daysAhead, lookback int) ([]models.SymbolPrediction, error)
}

// Scheduler runs cron jobs with a seconds field. Overlapping runs of the
// same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *xlogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log *xlogger.Logger) *Scheduler {
	if log == nil {
		log = xlogger.Nop()
	}
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterPredictions schedules PredictAll. An empty cron expression registers nothing.
func (s *Scheduler) RegisterPredictions(spec string, p BatchPredictor, daysAhead, lookback int) error {
	if spec == "" {
		s.log.Info("prediction schedule disabled")
		return nil
	}
	return s.AddJob("predict_all", spec, func(ctx context.Context) {
		RunPredictions(ctx, p, daysAhead, lookback, s.log)
	})
}

// AddJob schedules fn under name. fn receives a context cancelled by Stop.
func (s *Scheduler) AddJob(name, spec string, fn func(ctx context.Context)) error {
	if _, err := s.cron.AddFunc(spec, func() {
		s.log.Debug("cron job started", xlogger.String("job", name))
		fn(s.ctx)
	}); err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	s.log.Info("cron job registered", xlogger.String("job", name), xlogger.String("spec", spec))
	return nil
}

// Jobs is the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", xlogger.Int("jobs", s.Jobs()))
}

// Stop cancels running jobs and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunPredictions executes one batch and logs a summary.
func RunPredictions(ctx context.Context, p BatchPredictor, daysAhead, lookback int, log *xlogger.Logger) []models.SymbolPrediction {
	start := time.Now()
	rows, err := p.PredictAll(ctx, daysAhead, lookback)
	if err != nil {
		log.Error("scheduled predictions failed", xlogger.Error(err))
		return rows
	}
	predicted, failed := 0, 0
	for _, r := range rows {
		switch {
		case r.Error != "":
			failed++
		case r.Result.PredictedPrice != nil:
			predicted++
		}
	}
	log.Info("scheduled predictions done",
		xlogger.Int("stocks", len(rows)),
		xlogger.Int("predicted", predicted),
		xlogger.Int("failed", failed),
		xlogger.Duration("took", time.Since(start)),
	)
	return rows
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *xlogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), xlogger.Error(err))...)
}

func kvFields(kv []interface{}) []xlogger.Field {
	fields := make([]xlogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, xlogger.Any(key, kv[i+1]))
	}
	return fields
}
