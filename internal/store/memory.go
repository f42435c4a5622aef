package store

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process store with the same contract as Mongo, including
// transactions. It backs the test suites and lets the backend run without a
// database.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]M
}

type memTx struct {
	data map[string][]M
}

type txKey struct{}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]M)}
}

// WithTransaction stages fn's operations on a copy of the data and swaps the
// copy in only when fn succeeds. The store is locked for the duration, so a
// transaction never observes concurrent writes.
func (s *Memory) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return errors.New("nested transaction")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{data: cloneData(s.data)}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// view resolves the data set an operation should see: the staged transaction
// copy when the context carries one, the live data otherwise. The release
// func must be called when done.
func (s *Memory) view(ctx context.Context, write bool) (map[string][]M, func()) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		return tx.data, func() {}
	}
	if write {
		s.mu.Lock()
		return s.data, s.mu.Unlock
	}
	s.mu.RLock()
	return s.data, s.mu.RUnlock
}

func (s *Memory) Find(ctx context.Context, collection string, filter M, opts ...FindOption) ([]M, error) {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	data, release := s.view(ctx, false)
	defer release()

	var docs []M
	for _, doc := range data[collection] {
		if matchDoc(doc, filter) {
			docs = append(docs, doc)
		}
	}
	if cfg.sortField != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i][cfg.sortField], docs[j][cfg.sortField])
			if cfg.sortAsc {
				return c < 0
			}
			return c > 0
		})
	}
	return docs, nil
}

func (s *Memory) FindOne(ctx context.Context, collection string, filter M) (M, error) {
	data, release := s.view(ctx, false)
	defer release()

	for _, doc := range data[collection] {
		if matchDoc(doc, filter) {
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) FindByID(ctx context.Context, collection string, id string) (M, error) {
	return s.FindOne(ctx, collection, M{"_id": id})
}

func (s *Memory) Insert(ctx context.Context, collection string, doc any) (M, error) {
	encoded, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	encoded = stamp(encoded)

	data, release := s.view(ctx, true)
	defer release()

	data[collection] = append(data[collection], encoded)
	return encoded, nil
}

func (s *Memory) InsertMany(ctx context.Context, collection string, docs []any) ([]M, error) {
	inserted := make([]M, 0, len(docs))
	for _, doc := range docs {
		encoded, err := s.Insert(ctx, collection, doc)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, encoded)
	}
	return inserted, nil
}

func (s *Memory) UpdateByID(ctx context.Context, collection string, id string, patch M) (M, error) {
	data, release := s.view(ctx, true)
	defer release()

	for i, doc := range data[collection] {
		if doc["_id"] == id {
			updated := cloneDoc(doc)
			for k, v := range patch {
				updated[k] = v
			}
			updated["updatedAt"] = nowMillis()
			data[collection][i] = updated
			return updated, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) DeleteOne(ctx context.Context, collection string, filter M) (int64, error) {
	data, release := s.view(ctx, true)
	defer release()

	for i, doc := range data[collection] {
		if matchDoc(doc, filter) {
			data[collection] = append(data[collection][:i:i], data[collection][i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Memory) DeleteMany(ctx context.Context, collection string, filter M) (int64, error) {
	data, release := s.view(ctx, true)
	defer release()

	var kept []M
	var deleted int64
	for _, doc := range data[collection] {
		if matchDoc(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	data[collection] = kept
	return deleted, nil
}

func cloneData(data map[string][]M) map[string][]M {
	out := make(map[string][]M, len(data))
	for coll, docs := range data {
		copied := make([]M, len(docs))
		for i, doc := range docs {
			copied[i] = cloneDoc(doc)
		}
		out[coll] = copied
	}
	return out
}

func cloneDoc(doc M) M {
	out := make(M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// matchDoc evaluates the filter subset the services use: equality, $in, $or
// and $regex (with the i option).
func matchDoc(doc M, filter M) bool {
	for field, cond := range filter {
		if field == "$or" {
			if !matchOr(doc, cond) {
				return false
			}
			continue
		}
		if !matchValue(doc[field], cond) {
			return false
		}
	}
	return true
}

func matchOr(doc M, cond any) bool {
	branches := reflect.ValueOf(cond)
	if branches.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < branches.Len(); i++ {
		if branch, ok := branches.Index(i).Interface().(M); ok && matchDoc(doc, branch) {
			return true
		}
	}
	return false
}

func matchValue(value any, cond any) bool {
	if op, ok := cond.(M); ok {
		if in, ok := op["$in"]; ok {
			list := reflect.ValueOf(in)
			if list.Kind() != reflect.Slice {
				return false
			}
			for i := 0; i < list.Len(); i++ {
				if equalValues(value, list.Index(i).Interface()) {
					return true
				}
			}
			return false
		}
		if pattern, ok := op["$regex"].(string); ok {
			if opts, _ := op["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false
			}
			str, _ := value.(string)
			return re.MatchString(str)
		}
		return false
	}
	return equalValues(value, cond)
}

func equalValues(a, b any) bool {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) int {
	if ta, aok := asTime(a); aok {
		if tb, bok := asTime(b); bok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
