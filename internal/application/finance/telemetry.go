package finance

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rezkam/cashflow/internal/application/finance"

var tracer = otel.Tracer(instrumentationName)

// instruments records how much expansion work the service performs.
type instruments struct {
	expansions  metric.Int64Counter
	occurrences metric.Int64Histogram
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)

	expansions, err := meter.Int64Counter("cashflow.recurrence.expansions",
		metric.WithDescription("Number of recurrence expansions performed"),
	)
	if err != nil {
		expansions, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("cashflow.recurrence.expansions")
	}

	occurrences, err := meter.Int64Histogram("cashflow.recurrence.occurrences",
		metric.WithDescription("Number of occurrences produced per expansion"),
	)
	if err != nil {
		occurrences, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Histogram("cashflow.recurrence.occurrences")
	}

	return instruments{expansions: expansions, occurrences: occurrences}
}

func (i instruments) recordExpansion(ctx context.Context, operation string, produced int) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	i.expansions.Add(ctx, 1, attrs)
	i.occurrences.Record(ctx, int64(produced), attrs)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "finance."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
