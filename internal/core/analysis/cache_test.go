package analysis

import (
	"testing"
	"time"

	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"
)

func sampleAnalysis() *common.MealAnalysis {
	return &common.MealAnalysis{
		Meal: "Fried Rice",
		Recipe: []common.RecipeIngredient{
			{Type: "rice", Amount: 200, PricePerGram: 0.005},
		},
		EstimatedHomeCookedPrice: 14.15,
		RestaurantPrice:          30,
		Saving:                   15.85,
	}
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache := NewResultCache(&config.CacheConfig{Enabled: true})
	defer cache.Close()

	if _, ok := cache.Lookup("key"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	cache.Store("key", sampleAnalysis())

	got, ok := cache.Lookup("key")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.Meal != "Fried Rice" || got.Saving != 15.85 {
		t.Fatalf("unexpected cached value: %+v", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	cache := NewResultCache(&config.CacheConfig{Enabled: true})
	defer cache.Close()

	original := sampleAnalysis()
	cache.Store("key", original)

	// mutating the stored-from value must not reach the cache
	original.Meal = "Tampered"
	original.Recipe[0].PricePerGram = 99

	first, _ := cache.Lookup("key")
	if first.Meal != "Fried Rice" || first.Recipe[0].PricePerGram != 0.005 {
		t.Fatalf("cache aliased the stored value: %+v", first)
	}

	// mutating a looked-up value must not reach the next lookup
	first.Recipe[0].Amount = -1

	second, _ := cache.Lookup("key")
	if second.Recipe[0].Amount != 200 {
		t.Fatalf("cache aliased a returned value: %+v", second)
	}
}

func TestCacheDisabled(t *testing.T) {
	cache := NewResultCache(&config.CacheConfig{Enabled: false})
	if cache != nil {
		t.Fatal("expected nil cache when disabled")
	}

	// nil receiver must be safe everywhere
	cache.Store("key", sampleAnalysis())
	if _, ok := cache.Lookup("key"); ok {
		t.Fatal("nil cache must always miss")
	}
	if cache.Len() != 0 {
		t.Fatal("nil cache must report zero entries")
	}
	stats := cache.Stats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Fatal("nil cache must report disabled")
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("nil cache close failed: %v", err)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewResultCache(&config.CacheConfig{
		Enabled:         true,
		TTL:             10 * time.Millisecond,
		CleanupInterval: time.Minute,
	})
	defer cache.Close()

	cache.Store("key", sampleAnalysis())
	if _, ok := cache.Lookup("key"); !ok {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Lookup("key"); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestCacheStats(t *testing.T) {
	cache := NewResultCache(&config.CacheConfig{Enabled: true})
	defer cache.Close()

	cache.Lookup("missing")
	cache.Store("key", sampleAnalysis())
	cache.Lookup("key")

	stats := cache.Stats()
	if stats["hits"].(int64) != 1 {
		t.Fatalf("expected 1 hit, got %v", stats["hits"])
	}
	if stats["misses"].(int64) != 1 {
		t.Fatalf("expected 1 miss, got %v", stats["misses"])
	}
	if stats["size"].(int) != 1 {
		t.Fatalf("expected size 1, got %v", stats["size"])
	}
}
