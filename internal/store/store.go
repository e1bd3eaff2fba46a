package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"hoteldesk/internal/events"
)

var ErrNotFound = errors.New("document not found")

// Document is one record of a collection. Data holds the record as JSON;
// the id lives outside the payload, the way hosted document stores do it.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the document payload into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Predicates are equality filters over top-level document fields.
// Values are compared as strings; numeric fields are formatted first.
type Predicates map[string]string

// SnapshotFunc receives the full current result set of a live query.
type SnapshotFunc func(docs []Document)

// Store is the client contract of the hosted document store. Subscribe
// fires once immediately with the current matches and again after every
// change to the collection; the returned cancel func must be called when
// the consumer goes away.
type Store interface {
	Create(ctx context.Context, collection string, record any) (string, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, filter Predicates) ([]Document, error)
	Update(ctx context.Context, collection, id string, record any) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, collection string, filter Predicates, fn SnapshotFunc) (func(), error)
}

// matches reports whether the JSON payload satisfies every predicate.
// Documents that fail to parse never match.
func matches(data json.RawMessage, filter Predicates) bool {
	if len(filter) == 0 {
		return true
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}

	for key, want := range filter {
		got, ok := fields[key]
		if !ok {
			return false
		}
		switch v := got.(type) {
		case string:
			if v != want {
				return false
			}
		case float64:
			if strconv.FormatFloat(v, 'f', -1, 64) != want {
				return false
			}
		case bool:
			if strconv.FormatBool(v) != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func filterDocs(docs []Document, filter Predicates) []Document {
	if len(filter) == 0 {
		return docs
	}
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc.Data, filter) {
			out = append(out, doc)
		}
	}
	return out
}

// subscribe implements the snapshot-subscription contract on top of a
// backend's Query and the shared change notifier. The initial snapshot is
// delivered synchronously before subscribe returns.
func subscribe(ctx context.Context, s Store, notifier *events.Notifier, collection string, filter Predicates, fn SnapshotFunc) (func(), error) {
	docs, err := s.Query(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot for %s: %w", collection, err)
	}
	fn(docs)

	cancel := notifier.Subscribe(collection, func(events.Change) {
		if ctx.Err() != nil {
			return
		}
		docs, err := s.Query(ctx, collection, filter)
		if err != nil {
			return
		}
		fn(docs)
	})

	return cancel, nil
}
