package kafka

import (
    "context"
    "time"

    "github.com/segmentio/kafka-go"

    xlogger "StockPredict/pkg/logger"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler and sends the
// message down the failure path (DLQ and commit).
type ConsumerHook interface {
    BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
    AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
    OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook is a default hook that does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

// Context keys for common hook metadata.
type ctxKey string

const (
    // CtxStartTime holds time.Time for when handling started.
    CtxStartTime ctxKey = "kafka_hook_start_time"
    // CtxTraceID holds correlation/trace id extracted from headers.
    CtxTraceID ctxKey = "kafka_hook_trace_id"
)

// WithTraceID sets trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
    if traceID == "" {
        return ctx
    }
    return context.WithValue(ctx, CtxTraceID, traceID)
}

// TraceID returns the trace id stored by WithTraceID.
func TraceID(ctx context.Context) string {
    s, _ := ctx.Value(CtxTraceID).(string)
    return s
}

// ExtractTraceID tries to get trace id from Kafka headers.
func ExtractTraceID(msg kafka.Message) string {
    for _, h := range msg.Headers {
        if h.Key == "trace_id" && len(h.Value) > 0 {
            return string(h.Value)
        }
    }
    return ""
}

// LoggingHook tags the handler context with the message trace id and logs
// slow or failed attempts.
type LoggingHook struct {
    Log  *xlogger.Logger
    Slow time.Duration
}

func (h LoggingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    ctx = context.WithValue(ctx, CtxStartTime, time.Now())
    return WithTraceID(ctx, ExtractTraceID(km)), km, data, nil
}

func (h LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    start, ok := ctx.Value(CtxStartTime).(time.Time)
    if !ok || h.Slow <= 0 || err != nil {
        return
    }
    if d := time.Since(start); d > h.Slow {
        h.Log.Warn("kafka message slow",
            xlogger.String("topic", topic),
            xlogger.Int("partition", km.Partition),
            xlogger.Int64("offset", km.Offset),
            xlogger.Duration("elapsed_ms", d),
        )
    }
}

func (h LoggingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    h.Log.Warn("kafka message attempt failed",
        xlogger.String("topic", topic),
        xlogger.String("key", string(km.Key)),
        xlogger.String("trace_id", TraceID(ctx)),
        xlogger.Error(err),
    )
}
