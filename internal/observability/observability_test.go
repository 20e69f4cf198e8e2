package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestObserveDBCountsErrorsByClass(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.insert", func() error {
		return &pgconn.PgError{Code: "23505"}
	})
	if err == nil {
		t.Fatalf("expected error to pass through")
	}

	var m dto.Metric
	if err := p.DbErrorsTotal.WithLabelValues("users.insert", "unique_violation").Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 1 {
		t.Fatalf("unique_violation count = %v, want 1", got)
	}
}

func TestObserveDBMissIsNotAnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	_ = p.ObserveDB("users.find_by_email", func() error { return pgx.ErrNoRows })

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "civicchain_db_errors_total" {
			t.Fatalf("expected no error series, got %d", len(mf.GetMetric()))
		}
	}
}

func TestObserveDBNilProm(t *testing.T) {
	var p *Prom
	want := errors.New("boom")

	if err := p.ObserveDB("op", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
	p.ObserveAuth("login", "ok")
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v, line=%s", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id = %v, want %s", rec["trace_id"], span.SpanContext().TraceID())
	}
	if rec["span_id"] == nil {
		t.Fatalf("missing span_id: %v", rec)
	}
}
