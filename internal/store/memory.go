package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"hoteldesk/internal/events"

	"github.com/google/uuid"
)

// MemoryStore keeps collections in process memory. It backs tests and acts
// as the failover target when the hosted store is unreachable.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
	notifier    *events.Notifier
}

func NewMemoryStore(notifier *events.Notifier) *MemoryStore {
	if notifier == nil {
		notifier = events.NewNotifier()
	}
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		notifier:    notifier,
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]json.RawMessage)
	}
	s.collections[collection][id] = data
	s.mu.Unlock()

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeCreated, DocumentID: id})
	return id, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Data: data})
	}
	s.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter Predicates) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filterDocs(docs, filter), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.collections[collection][id] = data
	s.mu.Unlock()

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeUpdated, DocumentID: id})
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeDeleted, DocumentID: id})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	return subscribe(ctx, s, s.notifier, collection, filter, fn)
}
