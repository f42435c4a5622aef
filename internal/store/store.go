package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names used across the application. The store enforces no schema
// and no referential integrity; the services that write to these collections
// are responsible for keeping them consistent.
const (
	Users       = "users"
	Posts       = "posts"
	Attachments = "attachments"
	Likes       = "likes"
	Followers   = "followers"
	Pictures    = "pictures"
)

// M is a document or filter expressed as field/value pairs. Filters support
// plain equality plus the $in, $or and $regex operators.
type M = bson.M

// ErrNotFound is returned when an id-based lookup misses.
var ErrNotFound = errors.New("document not found")

// Store is the document store used by all services. Operations issued inside
// the callback of WithTransaction are staged and made visible atomically on
// success, or discarded entirely when the callback returns an error.
type Store interface {
	Find(ctx context.Context, collection string, filter M, opts ...FindOption) ([]M, error)
	FindOne(ctx context.Context, collection string, filter M) (M, error)
	FindByID(ctx context.Context, collection string, id string) (M, error)
	Insert(ctx context.Context, collection string, doc any) (M, error)
	InsertMany(ctx context.Context, collection string, docs []any) ([]M, error)
	UpdateByID(ctx context.Context, collection string, id string, patch M) (M, error)
	DeleteOne(ctx context.Context, collection string, filter M) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter M) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type findConfig struct {
	sortField string
	sortAsc   bool
}

// FindOption customizes a Find call.
type FindOption func(*findConfig)

// SortDesc orders results by the given field, newest/largest first.
func SortDesc(field string) FindOption {
	return func(cfg *findConfig) {
		cfg.sortField = field
		cfg.sortAsc = false
	}
}

// SortAsc orders results by the given field, smallest first.
func SortAsc(field string) FindOption {
	return func(cfg *findConfig) {
		cfg.sortField = field
		cfg.sortAsc = true
	}
}

// NewID generates a unique document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// Encode converts a model struct (or map) into a document via its bson tags.
func Encode(v any) (M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode converts a document back into a model struct via its bson tags.
func Decode[T any](doc M) (T, error) {
	var v T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return v, fmt.Errorf("decode document: %w", err)
	}
	if err := bson.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}

// DecodeAll converts a list of documents into model structs.
func DecodeAll[T any](docs []M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// stamp fills in the generated id and timestamps of a new document, keeping
// values the caller already set. Times are truncated to milliseconds, the
// precision BSON datetimes survive a round trip with.
func stamp(doc M) M {
	if id, ok := doc["_id"].(string); !ok || id == "" {
		doc["_id"] = NewID()
	}
	now := nowMillis()
	if isZeroTime(doc["createdAt"]) {
		doc["createdAt"] = now
	}
	if isZeroTime(doc["updatedAt"]) {
		doc["updatedAt"] = now
	}
	return doc
}

// nowMillis returns the current time at the precision BSON datetimes keep.
func nowMillis() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isZeroTime(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return t.IsZero()
	case primitive.DateTime:
		return t.Time().IsZero()
	case nil:
		return true
	}
	return false
}
