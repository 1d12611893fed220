package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestMetricsRecordAndReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.RecordAttempt("transport")
	m.RecordAttempt("ok")
	m.RecordRetry()
	m.RecordSend("general", "ok", 150*time.Millisecond)

	again, err := NewMetrics(reg)
	require.NoError(t, err)
	again.RecordAttempt("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sends.WithLabelValues("general", "ok")))

	var nilMetrics *Metrics
	nilMetrics.RecordRetry()
}

func TestInitStdoutTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitStdoutTracing("shopassist-test", &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "assistant.send")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "assistant.send")
}
