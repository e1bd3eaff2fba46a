package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hoteldesk/internal/events"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents in a local SQLite file. It exists for
// installations that run without a hosted store, and for durable local
// development data.
type SQLiteStore struct {
	db       *sql.DB
	notifier *events.Notifier
}

func NewSQLiteStore(path string, notifier *events.Notifier) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	if notifier == nil {
		notifier = events.NewNotifier()
	}
	return &SQLiteStore{db: db, notifier: notifier}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, collection string, record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	id := uuid.NewString()
	query := `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(data)); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeCreated, DocumentID: id})
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, Document{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (s *SQLiteStore) Query(ctx context.Context, collection string, filter Predicates) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filterDocs(docs, filter), nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	query := `UPDATE documents SET data = ? WHERE collection = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query, string(data), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeUpdated, DocumentID: id})
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	s.notifier.Publish(events.Change{Collection: collection, Kind: events.ChangeDeleted, DocumentID: id})
	return nil
}

func (s *SQLiteStore) Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	return subscribe(ctx, s, s.notifier, collection, filter, fn)
}
