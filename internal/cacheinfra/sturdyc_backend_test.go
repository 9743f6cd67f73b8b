package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

func newTestSturdyc(t *testing.T) *SturdycBackend {
	t.Helper()
	backend, err := NewSturdycBackend(DefaultConfig().Memory)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	return backend
}

func TestNewSturdycBackend_InvalidConfig(t *testing.T) {
	_, err := NewSturdycBackend(MemoryConfig{})
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigError, got %T", err)
	}
}

func TestSturdycBackend_GetSetDel(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)

	if _, ok, _ := backend.Get(ctx, "brand:1"); ok {
		t.Fatal("expected miss before set")
	}

	if err := backend.Set(ctx, "brand:1", []byte("acme"), 0); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	value, ok, err := backend.Get(ctx, "brand:1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(value) != "acme" {
		t.Errorf("expected acme, got %q", value)
	}

	exists, _ := backend.Exists(ctx, "brand:1")
	if !exists {
		t.Error("expected key to exist")
	}

	deleted, err := backend.Del(ctx, "brand:1", "brand:missing")
	if err != nil {
		t.Fatalf("unexpected del error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted key, got %d", deleted)
	}

	if exists, _ := backend.Exists(ctx, "brand:1"); exists {
		t.Error("expected key to be gone")
	}
}

// withClock makes the backend read time from the returned advance func.
func withClock(b *SturdycBackend) func(time.Duration) {
	now := time.Now()
	b.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestSturdycBackend_PerKeyTTL(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)
	advance := withClock(backend)

	_ = backend.Set(ctx, "search:brand:q=acme", []byte("hits"), 60*time.Second)
	_ = backend.Set(ctx, "store:s1:brands", []byte("list"), 0)

	ttl, err := backend.TTL(ctx, "search:brand:q=acme")
	if err != nil || ttl != 60*time.Second {
		t.Fatalf("expected 60s ttl, got %v err=%v", ttl, err)
	}
	if ttl, _ := backend.TTL(ctx, "store:s1:brands"); ttl != DefaultConfig().Memory.TTL {
		t.Errorf("zero ttl should use the client ttl, got %v", ttl)
	}

	advance(61 * time.Second)

	if _, ok, _ := backend.Get(ctx, "search:brand:q=acme"); ok {
		t.Error("expected expired entry to read as absent")
	}
	if exists, _ := backend.Exists(ctx, "search:brand:q=acme"); exists {
		t.Error("expected expired entry not to exist")
	}
	if ttl, _ := backend.TTL(ctx, "search:brand:q=acme"); ttl != -2*time.Second {
		t.Errorf("expected -2s for an absent key, got %v", ttl)
	}
	if _, ok, _ := backend.Get(ctx, "store:s1:brands"); !ok {
		t.Error("entry with the client ttl should still be live")
	}
}

func TestSturdycBackend_TTLCappedAtClientTTL(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)
	withClock(backend)

	_ = backend.Set(ctx, "k", []byte("v"), 24*time.Hour)
	if ttl, _ := backend.TTL(ctx, "k"); ttl != DefaultConfig().Memory.TTL {
		t.Errorf("expected ttl capped at %v, got %v", DefaultConfig().Memory.TTL, ttl)
	}
}

func TestSturdycBackend_ScanSkipsExpired(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)
	advance := withClock(backend)

	_ = backend.Set(ctx, "store:s1:brands", []byte("1"), time.Second)
	_ = backend.Set(ctx, "store:s1:products", []byte("2"), time.Minute)
	advance(2 * time.Second)

	keys, cursor, err := backend.Scan(ctx, 0, "store:s1:*", 100)
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if cursor != 0 {
		t.Errorf("expected scan to finish in one round, cursor %d", cursor)
	}
	if len(keys) != 1 || keys[0] != "store:s1:products" {
		t.Errorf("expected only the live key, got %v", keys)
	}
}

func TestSturdycBackend_ScanPagesThroughKeyspace(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)

	for i := 0; i < 25; i++ {
		_ = backend.Set(ctx, fmt.Sprintf("store:S1:brands:%02d", i), []byte("x"), 0)
		_ = backend.Set(ctx, fmt.Sprintf("store:S2:brands:%02d", i), []byte("x"), 0)
	}

	var (
		cursor uint64
		rounds int
		found  []string
	)
	for {
		keys, next, err := backend.Scan(ctx, cursor, "store:S1:*", 10)
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		rounds++
		found = append(found, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}

	if rounds != 5 {
		t.Errorf("expected 5 scan rounds over 50 keys with count 10, got %d", rounds)
	}
	if len(found) != 25 {
		t.Errorf("expected 25 matching keys, got %d", len(found))
	}
	sort.Strings(found)
	if found[0] != "store:S1:brands:00" {
		t.Errorf("unexpected first key %q", found[0])
	}
}

func TestSturdycBackend_ScanSurvivesDeletesBetweenRounds(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)

	for i := 0; i < 30; i++ {
		_ = backend.Set(ctx, fmt.Sprintf("k:%02d", i), []byte("x"), 0)
	}

	var cursor uint64
	total := 0
	for {
		keys, next, err := backend.Scan(ctx, cursor, "k:*", 7)
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		n, _ := backend.Del(ctx, keys...)
		total += int(n)
		if next == 0 {
			break
		}
		cursor = next
	}

	if total != 30 {
		t.Errorf("expected every key to be deleted, got %d", total)
	}
	if backend.Size() != 0 {
		t.Errorf("expected empty backend, got %d entries", backend.Size())
	}
}

func TestSturdycBackend_ScanRejectsBadPattern(t *testing.T) {
	backend := newTestSturdyc(t)
	if _, _, err := backend.Scan(context.Background(), 0, "[", 10); err == nil {
		t.Error("expected malformed pattern error")
	}
}

func TestSturdycBackend_Flush(t *testing.T) {
	ctx := context.Background()
	backend := newTestSturdyc(t)
	_ = backend.Set(ctx, "a", []byte("1"), 0)
	_ = backend.Set(ctx, "b", []byte("2"), 0)

	if err := backend.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if backend.Size() != 0 {
		t.Errorf("expected empty backend after flush, got %d", backend.Size())
	}
}
