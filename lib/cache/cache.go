package cache

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("spotifier.lib.cache")

var ErrInvalidTTL = errors.New("cache ttl must be positive")

// Backend is a string key-value store with per-entry expiry. Get on an
// expired entry is a miss, Delete on a missing key is not an error.
// Implementations are safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func startSpan(ctx context.Context, name, backend, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("cache.backend", backend),
		attribute.String("cache.key", key),
	))
}

func recordError(span trace.Span, err error, message string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
}

func recordHit(span trace.Span, hit bool) {
	span.SetAttributes(attribute.Bool("cache.hit", hit))
}

func checkTTL(span trace.Span, ttl time.Duration) error {
	if ttl <= 0 {
		recordError(span, ErrInvalidTTL, "invalid ttl")
		return ErrInvalidTTL
	}
	return nil
}

type namespaced struct {
	backend Backend
	prefix  string
}

// Namespaced prefixes every key with "<prefix>:" so that several clients
// can share one backend. an empty prefix returns backend unchanged.
func Namespaced(backend Backend, prefix string) Backend {
	if prefix == "" {
		return backend
	}
	return namespaced{backend: backend, prefix: prefix + ":"}
}

func (n namespaced) Get(ctx context.Context, key string) (string, bool) {
	return n.backend.Get(ctx, n.prefix+key)
}

func (n namespaced) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return n.backend.Set(ctx, n.prefix+key, value, ttl)
}

func (n namespaced) Delete(ctx context.Context, key string) error {
	return n.backend.Delete(ctx, n.prefix+key)
}
