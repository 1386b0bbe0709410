package router

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kvcached/kvcached/durable"
	"github.com/kvcached/kvcached/memstore"
)

// Validation errors, mirroring the reference StorageHandler's checks
// before forwarding a request to either tier.
var (
	ErrEmptyKey   = errors.New("router: key must not be empty")
	ErrEmptyValue = errors.New("router: value must not be empty")
	ErrEmptyGroup = errors.New("router: group must not be empty")
)

// KeyValue is a (key, value) pair returned by GetGroup.
type KeyValue struct {
	Key   string
	Value string
}

// ListEntry is a (key, value, group) triple returned by List.
type ListEntry struct {
	Key   string
	Value string
	Group string
}

// Router fans SET/GET/DELETE/LIST requests out across the in-memory
// and durable tiers.
type Router struct {
	mem     *memstore.Store
	durable *durable.Store
}

// New constructs a Router over the given tiers. Both must be non-nil:
// the Router calls into each tier without a nil check.
func New(mem *memstore.Store, dur *durable.Store) *Router {
	return &Router{mem: mem, durable: dur}
}

// Set stores key under group. persistent routes the write to the
// durable tier; otherwise it lands in memory with the given ttl
// (ignored for durable writes, which never expire).
func (r *Router) Set(key, value, group string, ttl time.Duration, persistent bool) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == "" {
		return ErrEmptyValue
	}

	if persistent {
		return r.durable.Set(key, value, group)
	}
	return r.mem.Set(key, value, group, ttl)
}

// GetKey checks memory first; a miss falls through to durable storage
// without promoting the durable value back into memory.
func (r *Router) GetKey(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	if v := r.mem.GetKey(key); v != "" {
		return v, nil
	}
	return r.durable.GetKey(key)
}

// GetGroup queries both tiers concurrently and concatenates their
// results, memory entries first. No deduplication is performed: a key
// present in both tiers is returned twice, matching the reference
// StorageHandler's behavior.
func (r *Router) GetGroup(ctx context.Context, group string) ([]KeyValue, error) {
	if group == "" {
		return nil, ErrEmptyGroup
	}

	var memResult []memstore.KeyValue
	var durResult []durable.KeyValue

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		memResult = r.mem.GetGroup(group)
		return nil
	})
	g.Go(func() error {
		var err error
		durResult, err = r.durable.GetGroup(group)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]KeyValue, 0, len(memResult)+len(durResult))
	for _, kv := range memResult {
		out = append(out, KeyValue{Key: kv.Key, Value: kv.Value})
	}
	for _, kv := range durResult {
		out = append(out, KeyValue{Key: kv.Key, Value: kv.Value})
	}
	return out, nil
}

// List queries both tiers concurrently and concatenates their
// results, memory entries first, with no deduplication.
func (r *Router) List(ctx context.Context) ([]ListEntry, error) {
	var memResult []memstore.ListEntry
	var durResult []durable.ListEntry

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		memResult = r.mem.List()
		return nil
	})
	g.Go(func() error {
		var err error
		durResult, err = r.durable.List()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ListEntry, 0, len(memResult)+len(durResult))
	for _, e := range memResult {
		out = append(out, ListEntry{Key: e.Key, Value: e.Value, Group: e.Group})
	}
	for _, e := range durResult {
		out = append(out, ListEntry{Key: e.Key, Value: e.Value, Group: e.Group})
	}
	return out, nil
}

// DeleteKey removes key from both tiers concurrently and sums the
// counts removed (0, 1, or 2).
func (r *Router) DeleteKey(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	var memCount int
	var durCount int

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		memCount = r.mem.DeleteKey(key)
		return nil
	})
	g.Go(func() error {
		var err error
		durCount, err = r.durable.DeleteKey(key)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return memCount + durCount, nil
}

// DeleteGroup removes every entry tagged with group from both tiers
// concurrently and sums the counts removed.
func (r *Router) DeleteGroup(ctx context.Context, group string) (int, error) {
	if group == "" {
		return 0, ErrEmptyGroup
	}

	var memCount int
	var durCount int

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		memCount = r.mem.DeleteGroup(group)
		return nil
	})
	g.Go(func() error {
		var err error
		durCount, err = r.durable.DeleteGroup(group)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return memCount + durCount, nil
}
