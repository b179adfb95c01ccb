package kafka

import (
    "context"
    "testing"
    "time"

    "github.com/segmentio/kafka-go"
    "github.com/stretchr/testify/assert"
)

func TestExtractTraceID(t *testing.T) {
    msg := kafka.Message{Headers: []kafka.Header{{Key: "source", Value: []byte("x")}, {Key: "trace_id", Value: []byte("abc")}}}
    assert.Equal(t, "abc", ExtractTraceID(msg))
    assert.Equal(t, "", ExtractTraceID(kafka.Message{}))
}

func TestLoggingHookBeforeHandle(t *testing.T) {
    msg := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("t-1")}}}
    ctx, _, data, err := LoggingHook{}.BeforeHandle(context.Background(), "topic", msg, []byte("p"))
    assert.NoError(t, err)
    assert.Equal(t, "t-1", TraceID(ctx))
    assert.Equal(t, []byte("p"), data)
    _, ok := ctx.Value(CtxStartTime).(time.Time)
    assert.True(t, ok)
}

func TestBackoffWithJitter(t *testing.T) {
    for attempt := 1; attempt < 70; attempt++ {
        d := backoffWithJitter(50*time.Millisecond, 2*time.Second, attempt)
        assert.Greater(t, d, time.Duration(0))
        assert.LessOrEqual(t, d, 2*time.Second)
    }
    d := backoffWithJitter(100*time.Millisecond, 10*time.Second, 1)
    assert.GreaterOrEqual(t, d, 50*time.Millisecond)
    assert.LessOrEqual(t, d, 100*time.Millisecond)
}

func TestEncodeValue(t *testing.T) {
    b, err := encodeValue(map[string]int{"a": 1})
    assert.NoError(t, err)
    assert.JSONEq(t, `{"a":1}`, string(b))

    b, _ = encodeValue("raw")
    assert.Equal(t, "raw", string(b))
}
