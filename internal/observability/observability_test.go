package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello", "k", "v")
	span.End()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), line["trace_id"])
	assert.NotEmpty(t, line["span_id"])
}

func TestLogger_NoSpanNoTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.Debug("hidden")
	log.Info("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.NotContains(t, line, "trace_id")
}

func TestObserveDB_ClassifiesErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	err := p.ObserveDB("users.create", func() error {
		return &pgconn.PgError{Code: "23505"}
	})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))

	_ = p.ObserveDB("todos.list", func() error { return errors.New("context deadline exceeded") })
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("todos.list", "timeout")))

	assert.NoError(t, p.ObserveDB("todos.get", func() error { return nil }))
}

func TestProm_NilSafe(t *testing.T) {
	var p *Prom
	p.ObserveAuthFailure("expired")
	p.ObserveLogin(LoginSuccess)
	assert.NoError(t, p.ObserveDB("x", func() error { return nil }))
}

func TestProm_AuthFailures(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.ObserveAuthFailure("expired")
	p.ObserveAuthFailure("expired")
	p.ObserveAuthFailure("bad_signature")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.AuthFailures.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.AuthFailures.WithLabelValues("bad_signature")))
}
