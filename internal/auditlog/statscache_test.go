package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	stubStore
	statsCalls  int
	rollupCalls int
}

func (s *countingStore) Statistics(ctx context.Context, days int) (*Statistics, error) {
	s.statsCalls++
	return &Statistics{Days: days, Total: 99}, nil
}

func (s *countingStore) IPRollup(ctx context.Context) ([]IPRollupRow, error) {
	s.rollupCalls++
	return []IPRollupRow{{IP: "10.0.0.1", Count: 3}}, nil
}

func newTestCache(t *testing.T) (*StatsCache, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	store := &countingStore{}
	cache := NewStatsCache(NewService(store), client, nil, time.Minute, time.Minute)
	return cache, store, mr
}

func TestStatisticsServedFromRedisAfterFirstMiss(t *testing.T) {
	cache, store, mr := newTestCache(t)

	first, err := cache.Statistics(context.Background(), 7)
	if err != nil {
		t.Fatalf("first statistics: %v", err)
	}
	if first.Total != 99 {
		t.Fatalf("unexpected total %d", first.Total)
	}
	if !mr.Exists("auditlog:stats:7") {
		t.Fatalf("expected the rebuild to populate redis")
	}

	second, err := cache.Statistics(context.Background(), 7)
	if err != nil {
		t.Fatalf("second statistics: %v", err)
	}
	if second.Total != 99 {
		t.Fatalf("unexpected cached total %d", second.Total)
	}
	if store.statsCalls != 1 {
		t.Fatalf("expected one repository pass, got %d", store.statsCalls)
	}
}

func TestStatisticsDayWindowsCacheSeparately(t *testing.T) {
	cache, store, _ := newTestCache(t)

	if _, err := cache.Statistics(context.Background(), 7); err != nil {
		t.Fatalf("statistics 7: %v", err)
	}
	if _, err := cache.Statistics(context.Background(), 30); err != nil {
		t.Fatalf("statistics 30: %v", err)
	}
	if store.statsCalls != 2 {
		t.Fatalf("expected one pass per window, got %d", store.statsCalls)
	}
}

func TestCorruptCacheEntryIsRebuilt(t *testing.T) {
	cache, store, mr := newTestCache(t)
	if err := mr.Set("auditlog:stats:7", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stats, err := cache.Statistics(context.Background(), 7)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Total != 99 || store.statsCalls != 1 {
		t.Fatalf("expected a rebuild past the corrupt entry, total=%d calls=%d", stats.Total, store.statsCalls)
	}
}

func TestRedisDownFailsOpen(t *testing.T) {
	cache, store, mr := newTestCache(t)
	mr.Close()

	stats, err := cache.Statistics(context.Background(), 7)
	if err != nil {
		t.Fatalf("statistics without redis: %v", err)
	}
	if stats.Total != 99 || store.statsCalls != 1 {
		t.Fatalf("expected a direct read, total=%d calls=%d", stats.Total, store.statsCalls)
	}
}

func TestIPLocationsCached(t *testing.T) {
	cache, store, _ := newTestCache(t)

	for i := 0; i < 3; i++ {
		rows, err := cache.IPLocations(context.Background())
		if err != nil {
			t.Fatalf("ip locations: %v", err)
		}
		if len(rows) != 1 || rows[0].IP != "10.0.0.1" {
			t.Fatalf("unexpected rows %+v", rows)
		}
	}
	if store.rollupCalls != 1 {
		t.Fatalf("expected one repository pass, got %d", store.rollupCalls)
	}
}

func TestWarmPopulatesWithoutReads(t *testing.T) {
	cache, store, mr := newTestCache(t)

	if err := cache.Warm(context.Background(), 30); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if err := cache.WarmRollup(context.Background()); err != nil {
		t.Fatalf("warm rollup: %v", err)
	}
	if !mr.Exists("auditlog:stats:30") || !mr.Exists("auditlog:iprollup") {
		t.Fatalf("expected warmed keys in redis")
	}

	if _, err := cache.Statistics(context.Background(), 30); err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if store.statsCalls != 1 {
		t.Fatalf("warmed reads must not hit the repository again, got %d calls", store.statsCalls)
	}
}
