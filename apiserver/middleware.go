package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phonghmnguyen/atm/telemetry"
)

type contextKey string

const (
	accountKey   contextKey = "account"
	requestIDKey contextKey = "requestID"

	RequestIDHeader = "X-Request-ID"
)

// AccountExtractorMiddleware lifts the {account} URL parameter into the request context
func AccountExtractorMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := chi.URLParam(r, "account")
		ctx := context.WithValue(r.Context(), accountKey, account)
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware reuses the caller's X-Request-ID or stamps a fresh uuid on the request
func RequestIDMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TelemetryMiddleware opens a span per request and logs the outcome
func TelemetryMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := telemetry.GetTracer().Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.Int("http.status_code", status),
			attribute.String("req.from", r.RemoteAddr),
			attribute.String("req.id", requestIDFromContext(ctx)),
		)

		telemetry.Log().Infof("[%s] path: %s, status: %d, from: %s, took: %v, request_id: %s",
			r.Method, r.URL.Path, status, r.RemoteAddr, time.Since(start), requestIDFromContext(ctx))
	})
}

func accountFromRequest(r *http.Request) string {
	if account, ok := r.Context().Value(accountKey).(string); ok {
		return account
	}

	return chi.URLParam(r, "account")
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
