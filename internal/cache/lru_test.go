// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache(3, time.Minute)

	cache.Add("https://go.dev/blog/pipelines", "job-1")
	cache.Add("https://go.dev/doc/effective_go", "job-2")

	val, found := cache.Get("https://go.dev/blog/pipelines")
	if !found || val != "job-1" {
		t.Errorf("Get = (%q, %v), want (job-1, true)", val, found)
	}
	if cache.Len() != 2 {
		t.Errorf("Expected len 2, got %d", cache.Len())
	}
	if _, found := cache.Get("https://example.com"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache(3, time.Minute)

	cache.Add("a", "1")
	cache.Add("b", "2")
	cache.Add("c", "3")

	// Access 'a' to make it most recently used
	cache.Get("a")

	// 'b' is now least recently used
	cache.Add("d", "4")

	if _, found := cache.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := cache.Get(key); !found {
			t.Errorf("Expected %q to be present", key)
		}
	}
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	cache := NewLRUCache(10, 50*time.Millisecond)

	cache.Add("a", "1")
	if _, found := cache.Get("a"); !found {
		t.Error("Expected to find key 'a' immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := cache.Get("a"); found {
		t.Error("Expected key 'a' to be expired")
	}
	if cache.Contains("a") {
		t.Error("Contains should be false after expiry")
	}
}

func TestLRUCache_GetOrAdd(t *testing.T) {
	cache := NewLRUCache(100, time.Minute)

	actual, loaded := cache.GetOrAdd("https://go.dev/blog/pipelines", "job-1")
	if loaded || actual != "job-1" {
		t.Errorf("first GetOrAdd = (%q, %v), want (job-1, false)", actual, loaded)
	}

	actual, loaded = cache.GetOrAdd("https://go.dev/blog/pipelines", "job-2")
	if !loaded || actual != "job-1" {
		t.Errorf("second GetOrAdd = (%q, %v), want (job-1, true)", actual, loaded)
	}

	actual, loaded = cache.GetOrAdd("https://go.dev/doc", "job-3")
	if loaded || actual != "job-3" {
		t.Errorf("different key GetOrAdd = (%q, %v), want (job-3, false)", actual, loaded)
	}
}

func TestLRUCache_GetOrAddAfterExpiry(t *testing.T) {
	cache := NewLRUCache(10, 30*time.Millisecond)

	cache.GetOrAdd("u", "old")
	time.Sleep(40 * time.Millisecond)

	actual, loaded := cache.GetOrAdd("u", "new")
	if loaded || actual != "new" {
		t.Errorf("GetOrAdd after expiry = (%q, %v), want (new, false)", actual, loaded)
	}
}

func TestLRUCache_Remove(t *testing.T) {
	cache := NewLRUCache(10, time.Minute)

	cache.Add("a", "1")
	cache.Add("b", "2")

	if !cache.Remove("a") {
		t.Error("Expected Remove to return true for existing key")
	}
	if cache.Remove("a") {
		t.Error("Expected Remove to return false for non-existing key")
	}
	if _, found := cache.Get("b"); !found {
		t.Error("Expected key 'b' to still be present")
	}
}

func TestLRUCache_Clear(t *testing.T) {
	cache := NewLRUCache(10, time.Minute)

	cache.Add("a", "1")
	cache.Add("b", "2")
	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got len %d", cache.Len())
	}
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	cache := NewLRUCache(10, 50*time.Millisecond)

	cache.Add("a", "1")
	cache.Add("b", "2")
	cache.Add("c", "3")

	time.Sleep(60 * time.Millisecond)
	cache.Add("d", "4")

	if removed := cache.CleanupExpired(); removed != 3 {
		t.Errorf("Expected 3 expired items removed, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 item remaining, got %d", cache.Len())
	}
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache(10, time.Minute)

	cache.Add("a", "1")
	cache.Get("a")        // hit
	cache.Get("a")        // hit
	cache.Get("nonexist") // miss

	hits, misses, size := cache.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats = (%d, %d, %d), want (2, 1, 1)", hits, misses, size)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("https://example.com/%d", (id+j)%26)
				cache.Add(key, "job")
				cache.Get(key)
				cache.Contains(key)
				cache.GetOrAdd(key, "other")
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 26 {
		t.Errorf("Expected 26 keys, got %d", cache.Len())
	}
}

func BenchmarkLRUCache_GetOrAdd(b *testing.B) {
	cache := NewLRUCache(10000, time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.GetOrAdd(fmt.Sprintf("https://example.com/%d", i%500), "job")
	}
}
