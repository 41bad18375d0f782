// Package query caches backend reads and runs writes that invalidate them.
// Reads go through the gateway with a bounded retry policy. Writes are sent
// once.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var NowTimeFunc = time.Now

type entry struct {
	path      string
	data      json.RawMessage
	fetchedAt time.Time
}

type Client struct {
	doer      gateway.Doer
	staleTime time.Duration
	retry     RetryPolicy
	log       zerolog.Logger

	group singleflight.Group

	// lock guards generation together with writes to store. generation moves
	// on every Invalidate and Clear so that reads started earlier do not
	// repopulate the cache with data from before the change.
	lock       sync.Mutex
	generation uint64
	store      *lru.Cache[string, entry]
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

func New(doer gateway.Doer, cfg config.CacheConfig, opts ...Option) (*Client, error) {
	capacity := cfg.GetCacheCapacity()
	if capacity <= 0 {
		capacity = config.Cache{}.GetCacheCapacity()
	}
	store, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create query store: %w", err)
	}

	c := &Client{
		doer:      doer,
		staleTime: cfg.GetStaleTime(),
		retry:     RetryPolicyFromConfig(cfg),
		log:       log.Logger,
		store:     store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns the data for key. A fresh entry is served from the cache. A
// stale entry is served as well while a background read replaces it. Without
// an entry the read runs now, shared with any concurrent Fetch of the same key.
func (c *Client) Fetch(ctx context.Context, key Key) (json.RawMessage, error) {
	id := key.String()
	if e, ok := c.store.Get(id); ok {
		if NowTimeFunc().Sub(e.fetchedAt) >= c.staleTime {
			c.refetch(ctx, key, id)
		}
		return e.data, nil
	}

	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

func (c *Client) refetch(ctx context.Context, key Key, id string) {
	// DoChan's channel is buffered, nobody has to read it.
	c.group.DoChan(id, func() (any, error) {
		data, err := c.load(context.WithoutCancel(ctx), key, id)
		if err != nil {
			c.log.Warn().Err(err).Str("key", id).Msg("Background refetch failed")
		}
		return data, err
	})
}

// load reads key through the gateway, retrying per the policy, and stores the
// result unless the cache was invalidated meanwhile.
func (c *Client) load(ctx context.Context, key Key, id string) (json.RawMessage, error) {
	c.lock.Lock()
	generation := c.generation
	c.lock.Unlock()

	var retried int
	for {
		data, err := c.doer.Do(ctx, http.MethodGet, key.Path, key.Params)
		if err == nil {
			c.put(generation, id, key.Path, data)
			return data, nil
		}
		if ctx.Err() != nil || !c.retry.ShouldRetry(retried, err) {
			return nil, err
		}
		delay := c.retry.Delay(retried)
		c.log.Debug().Err(err).Str("key", id).Dur("delay", delay).Msg("Retrying query")
		if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
			return nil, err
		}
		retried++
	}
}

func (c *Client) put(generation uint64, id, path string, data json.RawMessage) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if generation != c.generation {
		return
	}
	c.store.Add(id, entry{path: path, data: data, fetchedAt: NowTimeFunc()})
}

// Get fetches key and decodes the result into T. An empty response leaves T at
// its zero value.
func Get[T any](ctx context.Context, c *Client, key Key) (T, error) {
	var out T
	raw, err := c.Fetch(ctx, key)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}

// Mutate sends a write once. On success every cached read whose path matches
// one of the invalidate keys is dropped.
func (c *Client) Mutate(ctx context.Context, method, path string, payload any, invalidate ...Key) (json.RawMessage, error) {
	data, err := c.doer.Do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	c.Invalidate(invalidate...)
	return data, nil
}

// MutateAs is Mutate with the response decoded into T.
func MutateAs[T any](ctx context.Context, c *Client, method, path string, payload any, invalidate ...Key) (T, error) {
	var out T
	raw, err := c.Mutate(ctx, method, path, payload, invalidate...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return out, nil
}

// Invalidate drops every entry whose path matches one of keys, whatever its
// params.
func (c *Client) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	paths := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		paths[k.Path] = struct{}{}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.generation++
	for _, id := range c.store.Keys() {
		e, ok := c.store.Peek(id)
		if !ok {
			continue
		}
		if _, hit := paths[e.path]; hit {
			c.store.Remove(id)
		}
	}
}

// Clear drops everything. The session manager calls it on sign-out so one
// seller's data is never served to the next.
func (c *Client) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.generation++
	c.store.Purge()
}

// Cached reports whether key has an entry, fresh or stale.
func (c *Client) Cached(key Key) bool {
	return c.store.Contains(key.String())
}

func (c *Client) Len() int {
	return c.store.Len()
}
