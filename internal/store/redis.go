package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"hoteldesk/internal/config"
	"hoteldesk/internal/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the hosted document store backend. Every collection is a
// Redis hash keyed by document id with JSON values.
type RedisStore struct {
	client   *redis.Client
	notifier *events.Notifier
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStore(client *redis.Client, notifier *events.Notifier) *RedisStore {
	if notifier == nil {
		notifier = events.NewNotifier()
	}
	return &RedisStore{client: client, notifier: notifier}
}

func collectionKey(collection string) string {
	return fmt.Sprintf("collection:%s", collection)
}

func (s *RedisStore) Create(ctx context.Context, collection string, record any) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	id := uuid.NewString()
	if err := s.client.HSet(ctx, collectionKey(collection), id, data).Err(); err != nil {
		return "", fmt.Errorf("failed to create document in redis: %w", err)
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeCreated, DocumentID: id})
	return id, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	raw, err := s.client.HGetAll(ctx, collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s from redis: %w", collection, err)
	}

	docs := make([]Document, 0, len(raw))
	for id, data := range raw {
		docs = append(docs, Document{ID: id, Data: json.RawMessage(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *RedisStore) Query(ctx context.Context, collection string, filter Predicates) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filterDocs(docs, filter), nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, record any) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	exists, err := s.client.HExists(ctx, collectionKey(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to check document in redis: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.client.HSet(ctx, collectionKey(collection), id, data).Err(); err != nil {
		return fmt.Errorf("failed to update document in redis: %w", err)
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeUpdated, DocumentID: id})
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	removed, err := s.client.HDel(ctx, collectionKey(collection), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete document from redis: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeDeleted, DocumentID: id})
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	return subscribe(ctx, s, s.notifier, collection, filter, fn)
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
