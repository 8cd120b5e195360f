package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
	"voicedesk/internal/interfaces"
)

// TenantConfigCache is a TTL cache in front of the tenant repository, keyed
// by callee number. Entries are replaced whole on expiry, never mutated, so
// concurrent calls for the same tenant can share a snapshot safely.
//
// Concurrent misses for the same key may each hit the database; fetches are
// idempotent and cheap next to call setup, so no single-flight is done.
type TenantConfigCache struct {
	source interfaces.ConfigSource
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	cfg      *entities.TenantCallConfig
	cachedAt time.Time
}

func NewTenantConfigCache(source interfaces.ConfigSource, ttl time.Duration, log zerolog.Logger) *TenantConfigCache {
	return &TenantConfigCache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock replaces the time source. Tests only.
func (c *TenantConfigCache) WithClock(now func() time.Time) *TenantConfigCache {
	c.now = now
	return c
}

// GetByCallee returns the cached config when fresh, otherwise fetches and
// stores a new snapshot. An unmapped callee number yields (nil, nil) and is
// not cached, so a freshly provisioned number works without waiting out
// the TTL.
func (c *TenantConfigCache) GetByCallee(ctx context.Context, calleeNumber string) (*entities.TenantCallConfig, error) {
	c.mu.RLock()
	entry, ok := c.entries[calleeNumber]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.cachedAt) < c.ttl {
		return entry.cfg, nil
	}

	cfg, err := c.source.GetByCallee(ctx, calleeNumber)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	c.mu.Lock()
	c.entries[calleeNumber] = cacheEntry{cfg: cfg, cachedAt: c.now()}
	c.mu.Unlock()

	c.log.Debug().Str("callee", calleeNumber).Int("tenant_id", cfg.TenantID).Msg("tenant config cached")
	return cfg, nil
}

// Invalidate drops the entry for a callee number. Called by the dashboard
// when a tenant saves configuration changes.
func (c *TenantConfigCache) Invalidate(calleeNumber string) {
	c.mu.Lock()
	delete(c.entries, calleeNumber)
	c.mu.Unlock()
}
