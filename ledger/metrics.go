package ledger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/phonghmnguyen/atm/telemetry"
)

const outcomeOK = "ok"

type metrics struct {
	operations metric.Int64Counter
	lockWait   metric.Float64Histogram
}

func newMetrics(meter metric.Meter) *metrics {
	fallback := noop.NewMeterProvider().Meter("")

	operations, err := meter.Int64Counter("ledger.operations",
		metric.WithDescription("Number of ledger operations by kind and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		telemetry.Log().Errorf("Failed to create ledger.operations counter: %v", err)
		operations, _ = fallback.Int64Counter("ledger.operations")
	}

	lockWait, err := meter.Float64Histogram("ledger.lock.wait",
		metric.WithDescription("Time spent waiting for an account lock"),
		metric.WithUnit("s"),
	)
	if err != nil {
		telemetry.Log().Errorf("Failed to create ledger.lock.wait histogram: %v", err)
		lockWait, _ = fallback.Float64Histogram("ledger.lock.wait")
	}

	return &metrics{
		operations: operations,
		lockWait:   lockWait,
	}
}

func (m *metrics) recordOperation(ctx context.Context, op Operation, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = string(KindOf(err))
	}

	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op.String()),
		attribute.String("outcome", outcome),
	))
}

func (m *metrics) recordLockWait(ctx context.Context, op Operation, waited time.Duration, acquired bool) {
	m.lockWait.Record(ctx, waited.Seconds(), metric.WithAttributes(
		attribute.String("op", op.String()),
		attribute.Bool("acquired", acquired),
	))
}
