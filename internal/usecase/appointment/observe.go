package appointment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
)

var tracer = otel.Tracer("clinic-scheduler/appointment")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan marks the span failed for infrastructure errors only. Business
// rejections are recorded as an attribute.
func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := httperr.KindOf(err)
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		if kind == "" || kind == httperr.KindUnavailable || kind == httperr.KindTimeout {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// outcome is the metric label for err: "ok" or the error kind.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := httperr.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal"
}

func countConflict(m *metrics.Collector, err error, operation string) {
	if m == nil || !httperr.Is(err, httperr.KindConflict) {
		return
	}
	scope := "unknown"
	if be, ok := httperr.As(err); ok && be.Details["scope"] != "" {
		scope = be.Details["scope"]
	}
	m.SlotConflictsTotal.WithLabelValues(scope, operation).Inc()
}

// withTxTimeout bounds one unit of work at the store.
func withTxTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
