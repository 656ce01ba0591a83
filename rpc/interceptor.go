package rpc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/phonghmnguyen/atm/telemetry"
)

// UnaryTelemetryInterceptor opens a server span per call so handlers can annotate it
func UnaryTelemetryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	ctx, span := telemetry.GetTracer().Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	res, err := handler(ctx, req)

	code := status.Code(err)
	span.SetAttributes(
		attribute.String("rpc.system", "grpc"),
		attribute.String("rpc.method", info.FullMethod),
		attribute.String("rpc.grpc.status_code", code.String()),
	)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
	}

	telemetry.Log().Debugf("[%s] status: %s, took: %v", info.FullMethod, code, time.Since(start))
	return res, err
}
