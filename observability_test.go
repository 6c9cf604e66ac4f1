package aresmysql

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// TestPoolObservabilityHooks runs one statement through a fully
// instrumented pool and checks that all three hooks observed it.
func TestPoolObservabilityHooks(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := prometheus.NewRegistry()
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	settings := DefaultSettings("db", 3306, "app", "", "shop").
		WithLogger(logger).
		WithMetrics(metrics).
		WithTracing(tracer)

	pools := NewPoolRegistry()
	pool := NewPoolFromDB(db, settings)
	_, err = pools.GetOrCreate("test", func() (*Pool, error) { return pool, nil })
	require.NoError(t, err)

	sessions := NewSessionRegistry(pools, logger)
	sessions.RegisterSettings("test", settings)

	s, err := sessions.Session(context.Background(), "s1", "test")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err = s.Execute(context.Background(), "SELECT id FROM orders")
	require.NoError(t, err)

	// Logger hook: the statement lands in the debug log.
	assert.Contains(t, logs.String(), "statement executed")
	assert.Contains(t, logs.String(), "operation=select")

	// Metrics hook: the per-operation counters moved.
	assert.Equal(t, 1.0, counterValue(t, metrics, "aresmysql_queries_total", "select"))
	assert.Equal(t, 0.0, counterValue(t, metrics, "aresmysql_query_errors_total", "select"))

	// Tracing hook: one client span per statement.
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.select", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())

	require.NoError(t, mock.ExpectationsWereMet())
}

// counterValue reads one labeled counter out of a gatherer; a counter
// with no samples yet reads as zero.
func counterValue(t *testing.T, g prometheus.Gatherer, name, operation string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "operation" && label.GetValue() == operation {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
