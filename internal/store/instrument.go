package store

import (
	"context"

	"hoteldesk/internal/metrics"
)

// Instrumented wraps a backend and records one metric per store call.
type Instrumented struct {
	inner   Store
	backend string
}

func NewInstrumented(inner Store, backend string) *Instrumented {
	return &Instrumented{inner: inner, backend: backend}
}

func (s *Instrumented) Create(ctx context.Context, collection string, record any) (string, error) {
	id, err := s.inner.Create(ctx, collection, record)
	metrics.IncStoreOp(s.backend, "create", err)
	return id, err
}

func (s *Instrumented) List(ctx context.Context, collection string) ([]Document, error) {
	docs, err := s.inner.List(ctx, collection)
	metrics.IncStoreOp(s.backend, "list", err)
	return docs, err
}

func (s *Instrumented) Query(ctx context.Context, collection string, filter Predicates) ([]Document, error) {
	docs, err := s.inner.Query(ctx, collection, filter)
	metrics.IncStoreOp(s.backend, "query", err)
	return docs, err
}

func (s *Instrumented) Update(ctx context.Context, collection, id string, record any) error {
	err := s.inner.Update(ctx, collection, id, record)
	metrics.IncStoreOp(s.backend, "update", err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, collection, id string) error {
	err := s.inner.Delete(ctx, collection, id)
	metrics.IncStoreOp(s.backend, "delete", err)
	return err
}

func (s *Instrumented) Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	wrapped := func(docs []Document) {
		metrics.IncSnapshot(collection)
		fn(docs)
	}
	cancel, err := s.inner.Subscribe(ctx, collection, filter, wrapped)
	metrics.IncStoreOp(s.backend, "subscribe", err)
	return cancel, err
}
