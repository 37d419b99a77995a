package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ready2cook/backend/internal/domain"
)

// Collection is an ordered list of records stored as one JSON array under a
// single key. Update runs its read-modify-write cycle under a mutex, so a
// Collection must be the only writer of its key within the process.
type Collection[T any] struct {
	store domain.KeyValueStore
	key   string
	valid func(T) bool
	mu    sync.Mutex
}

// NewCollection binds a collection to key. valid reports whether a decoded
// record is usable; records failing it are dropped on load. A nil valid
// accepts every record that decodes.
func NewCollection[T any](store domain.KeyValueStore, key string, valid func(T) bool) *Collection[T] {
	return &Collection[T]{store: store, key: key, valid: valid}
}

// Key returns the store key backing the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load reads and decodes the collection. Undecodable or invalid entries are
// counted in Dropped; only storage failures return an error.
func (c *Collection[T]) Load(ctx context.Context) (domain.LoadResult[T], error) {
	raw, err := c.read(ctx)
	if err != nil {
		return domain.LoadResult[T]{Records: []T{}}, err
	}
	return c.decode(raw), nil
}

// Update loads the collection, applies fn and persists the result when fn
// reports a change. The returned result holds the records after fn.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) (next []T, changed bool)) (domain.LoadResult[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.read(ctx)
	if err != nil {
		return domain.LoadResult[T]{Records: []T{}}, err
	}
	current := c.decode(raw)

	next, changed := fn(current.Records)
	if next == nil {
		next = []T{}
	}
	if !changed {
		return current, nil
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return current, fmt.Errorf("%w: encode %s: %v", domain.ErrStorage, c.key, err)
	}
	if err := c.store.Set(ctx, c.key, string(encoded)); err != nil {
		return current, fmt.Errorf("%w: write %s: %v", domain.ErrStorage, c.key, err)
	}

	return domain.LoadResult[T]{Records: next, Dropped: current.Dropped, Corrupt: current.Corrupt}, nil
}

func (c *Collection[T]) read(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrStorage, c.key, err)
	}
	return raw, nil
}

func (c *Collection[T]) decode(raw string) domain.LoadResult[T] {
	result := domain.LoadResult[T]{Records: []T{}}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return result
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		result.Corrupt = true
		return result
	}

	for _, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			result.Dropped++
			continue
		}
		if c.valid != nil && !c.valid(rec) {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result
}
