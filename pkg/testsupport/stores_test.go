package testsupport

import (
	"context"
	"testing"
	"time"
)

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	var one int
	if err := db.NewRaw("SELECT 1").Scan(context.Background(), &one); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if one != 1 {
		t.Errorf("SELECT 1 = %d", one)
	}
}

func TestNewMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(t)

	if !store.Set(ctx, "entity:1", "v", time.Minute) {
		t.Fatal("Set failed")
	}
	var got string
	if !store.Get(ctx, "entity:1", &got) || got != "v" {
		t.Errorf("Get = %q", got)
	}
}

func TestNewRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := NewRedisStore(t)

	store.Set(ctx, "store:s1:brands", []string{"a"}, time.Minute)
	if !mr.Exists("store:s1:brands") {
		t.Error("expected key in redis")
	}
	if ttl := store.TTL(ctx, "store:s1:brands"); ttl <= 0 || ttl > 60 {
		t.Errorf("TTL = %d", ttl)
	}
}
