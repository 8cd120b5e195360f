package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
)

type countingSource struct {
	cfg   *entities.TenantCallConfig
	err   error
	calls int
}

func (s *countingSource) GetByCallee(_ context.Context, _ string) (*entities.TenantCallConfig, error) {
	s.calls++
	return s.cfg, s.err
}

func TestCacheServesFreshEntryWithoutRefetch(t *testing.T) {
	source := &countingSource{cfg: &entities.TenantCallConfig{TenantID: 1, CalleeNumber: "+34910000000"}}
	now := time.Now()
	cache := NewTenantConfigCache(source, 5*time.Minute, zerolog.Nop()).
		WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		cfg, err := cache.GetByCallee(context.Background(), "+34910000000")
		if err != nil || cfg == nil || cfg.TenantID != 1 {
			t.Fatalf("lookup %d: cfg=%v err=%v", i, cfg, err)
		}
	}
	if source.calls != 1 {
		t.Errorf("source hit %d times, want 1", source.calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	source := &countingSource{cfg: &entities.TenantCallConfig{TenantID: 1, CalleeNumber: "+34910000000"}}
	now := time.Now()
	cache := NewTenantConfigCache(source, 5*time.Minute, zerolog.Nop()).
		WithClock(func() time.Time { return now })

	if _, err := cache.GetByCallee(context.Background(), "+34910000000"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(5*time.Minute + time.Second)
	if _, err := cache.GetByCallee(context.Background(), "+34910000000"); err != nil {
		t.Fatal(err)
	}
	if source.calls != 2 {
		t.Errorf("source hit %d times, want 2 after TTL expiry", source.calls)
	}
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	source := &countingSource{cfg: &entities.TenantCallConfig{TenantID: 1, CalleeNumber: "+34910000000"}}
	cache := NewTenantConfigCache(source, time.Hour, zerolog.Nop())

	if _, err := cache.GetByCallee(context.Background(), "+34910000000"); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate("+34910000000")
	if _, err := cache.GetByCallee(context.Background(), "+34910000000"); err != nil {
		t.Fatal(err)
	}
	if source.calls != 2 {
		t.Errorf("source hit %d times, want 2 after invalidation", source.calls)
	}
}

func TestCacheDoesNotCacheUnmappedNumbers(t *testing.T) {
	source := &countingSource{cfg: nil}
	cache := NewTenantConfigCache(source, time.Hour, zerolog.Nop())

	for i := 0; i < 2; i++ {
		cfg, err := cache.GetByCallee(context.Background(), "+34999999999")
		if cfg != nil || err != nil {
			t.Fatalf("lookup %d: cfg=%v err=%v, want (nil, nil)", i, cfg, err)
		}
	}
	// A freshly provisioned number must work without waiting out the TTL
	if source.calls != 2 {
		t.Errorf("source hit %d times, want 2 (nil never cached)", source.calls)
	}
}

func TestCachePropagatesSourceError(t *testing.T) {
	source := &countingSource{err: errors.New("connection refused")}
	cache := NewTenantConfigCache(source, time.Hour, zerolog.Nop())

	if _, err := cache.GetByCallee(context.Background(), "+34910000000"); err == nil {
		t.Fatal("expected source error to propagate")
	}
}
