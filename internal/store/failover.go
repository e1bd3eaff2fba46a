package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the failover waits before probing the
// primary again after an outage.
const recoveryInterval = time.Minute

// FailoverStore routes every call to the primary backend and falls back
// to the secondary once the primary errors. ErrNotFound is a result, not
// an outage, and never triggers failover.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// active picks the backend for the next call, probing the primary once the
// recovery interval has elapsed.
func (s *FailoverStore) active() Store {
	if !s.isDown.Load() {
		return s.primary
	}
	if time.Since(time.Unix(s.lastCheck.Load(), 0)) > recoveryInterval {
		s.isDown.Store(false)
		return s.primary
	}
	return s.fallback
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("Primary store failed, falling back")
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().Unix())
}

func (s *FailoverStore) Create(ctx context.Context, collection string, record any) (string, error) {
	backend := s.active()
	id, err := backend.Create(ctx, collection, record)
	if err == nil || backend != s.primary || errors.Is(err, ErrNotFound) {
		return id, err
	}
	s.markDown(err)
	return s.fallback.Create(ctx, collection, record)
}

func (s *FailoverStore) List(ctx context.Context, collection string) ([]Document, error) {
	backend := s.active()
	docs, err := backend.List(ctx, collection)
	if err == nil || backend != s.primary {
		return docs, err
	}
	s.markDown(err)
	return s.fallback.List(ctx, collection)
}

func (s *FailoverStore) Query(ctx context.Context, collection string, filter Predicates) ([]Document, error) {
	backend := s.active()
	docs, err := backend.Query(ctx, collection, filter)
	if err == nil || backend != s.primary {
		return docs, err
	}
	s.markDown(err)
	return s.fallback.Query(ctx, collection, filter)
}

func (s *FailoverStore) Update(ctx context.Context, collection, id string, record any) error {
	backend := s.active()
	err := backend.Update(ctx, collection, id, record)
	if err == nil || backend != s.primary || errors.Is(err, ErrNotFound) {
		return err
	}
	s.markDown(err)
	return s.fallback.Update(ctx, collection, id, record)
}

func (s *FailoverStore) Delete(ctx context.Context, collection, id string) error {
	backend := s.active()
	err := backend.Delete(ctx, collection, id)
	if err == nil || backend != s.primary || errors.Is(err, ErrNotFound) {
		return err
	}
	s.markDown(err)
	return s.fallback.Delete(ctx, collection, id)
}

func (s *FailoverStore) Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	backend := s.active()
	cancel, err := backend.Subscribe(ctx, collection, filter, fn)
	if err == nil || backend != s.primary {
		return cancel, err
	}
	s.markDown(err)
	return s.fallback.Subscribe(ctx, collection, filter, fn)
}
