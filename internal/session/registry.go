// Package session maps session cookies to client state stores.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/internal/state"
	"github.com/jellydator/ttlcache/v3"
)

// Registry owns one state.Store per session id and evicts idle sessions.
type Registry struct {
	cache  *ttlcache.Cache[string, *state.Store]
	logger *slog.Logger
}

// NewRegistry creates a registry whose sessions expire after ttl without use.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		cache:  ttlcache.New[string, *state.Store](ttlcache.WithTTL[string, *state.Store](ttl)),
		logger: logger.With("component", "session_registry"),
	}
	r.cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *state.Store]) {
		if reason == ttlcache.EvictionReasonExpired {
			r.logger.DebugContext(ctx, "evicted idle session", "session", item.Key())
		}
	})
	return r
}

// Get returns the store of session id, creating it on first use. Every call extends the session's ttl.
func (r *Registry) Get(id string) *state.Store {
	if item := r.cache.Get(id); item != nil {
		return item.Value()
	}
	item, _ := r.cache.GetOrSet(id, state.NewStore())
	return item.Value()
}

// Len reports the number of tracked sessions, including expired ones not yet swept.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Sweep evicts sessions idle for longer than the ttl.
func (r *Registry) Sweep() {
	r.cache.DeleteExpired()
}

// Run evicts expired sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.cache.Stop()
	}()
	r.cache.Start()
	return nil
}
