// Package redishash answers hydration lookups from Redis hashes: one hash per
// record, hash fields are keys.
package redishash

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/redis/go-redis/v9"

	"github.com/hengadev/hydrx"
)

var ErrNotFound = errors.New("hash not found")

// Client is the part of redis.Cmdable the source needs.
type Client interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Config for a Source.
type Config struct {
	Client Client
	// KeyPrefix is prepended to every record key, e.g. "kitchen:meals:".
	KeyPrefix string
	// ScanCount is the COUNT hint for SCAN. Default: 100
	ScanCount int64
}

// Hash is the content of one Redis hash.
type Hash struct {
	Key    string
	Fields map[string]string
}

// Lookup answers key from the hash fields; missing fields are nulls.
func (h Hash) Lookup(key string) hydrx.Result {
	v, ok := h.Fields[key]
	return hydrx.Optional(v, ok)
}

// Lookup is the row lookup for hashes, usable with hydrx.HydrateMany.
func Lookup(h Hash, key string) hydrx.Result {
	return h.Lookup(key)
}

type Source struct {
	client    Client
	keyPrefix string
	scanCount int64
}

func New(cfg Config) *Source {
	count := cfg.ScanCount
	if count <= 0 {
		count = 100
	}
	return &Source{client: cfg.Client, keyPrefix: cfg.KeyPrefix, scanCount: count}
}

// NewClient connects to addr and checks the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(ctx).Err(); err != nil {
		cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return cl, nil
}

// Get reads the hash stored under prefix+id. Redis does not tell an empty
// hash from a missing one; both are ErrNotFound.
func (s *Source) Get(ctx context.Context, id string) (Hash, error) {
	key := s.keyPrefix + id
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Hash{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Hash{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return Hash{Key: key, Fields: fields}, nil
}

// GetMany reads several hashes in order.
func (s *Source) GetMany(ctx context.Context, ids ...string) ([]Hash, error) {
	out := make([]Hash, 0, len(ids))
	for _, id := range ids {
		h, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Scan iterates every hash whose key matches prefix+pattern. Keys are
// yielded in SCAN order, which is unspecified.
func (s *Source) Scan(ctx context.Context, pattern string) iter.Seq2[Hash, error] {
	return func(yield func(Hash, error) bool) {
		var cursor uint64
		for {
			keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+pattern, s.scanCount).Result()
			if err != nil {
				yield(Hash{}, fmt.Errorf("scan: %w", err))
				return
			}
			for _, key := range keys {
				fields, err := s.client.HGetAll(ctx, key).Result()
				if err != nil {
					if !yield(Hash{}, fmt.Errorf("hgetall %s: %w", key, err)) {
						return
					}
					continue
				}
				if len(fields) == 0 {
					// Deleted between SCAN and HGETALL.
					continue
				}
				if !yield(Hash{Key: key, Fields: fields}, nil) {
					return
				}
			}
			if next == 0 {
				return
			}
			cursor = next
		}
	}
}

// Hydrate reads one hash and builds a T from it.
func Hydrate[T any](ctx context.Context, e *hydrx.Engine[T], s *Source, id string, opts ...hydrx.CallOption) (*T, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Hydrate(h.Lookup, append([]hydrx.CallOption{hydrx.WithContext(ctx)}, opts...)...)
}

// HydrateMany reads the hashes for ids and builds one T per hash, in ids order.
func HydrateMany[T any](ctx context.Context, e *hydrx.Engine[T], s *Source, ids []string, opts ...hydrx.CallOption) ([]*T, error) {
	hashes, err := s.GetMany(ctx, ids...)
	if err != nil {
		return nil, err
	}
	return hydrx.HydrateMany(e, hashes, Lookup, append([]hydrx.CallOption{hydrx.WithContext(ctx)}, opts...)...)
}
