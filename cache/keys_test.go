package cache

import (
	"path"
	"testing"
)

func TestKeyScheme(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"entity", EntityKey("brand", "b1"), "brand:b1"},
		{"store", StoreKey("S1", "brands"), "store:S1:brands"},
		{"user", UserKey("U1", "orders"), "user:U1:orders"},
		{"store pattern", StorePattern("S1"), "store:S1:*"},
		{"store data pattern", StoreDataPattern("S1", "brands"), "store:S1:brands*"},
		{"user pattern", UserPattern("U1"), "user:U1:*"},
		{"search pattern", SearchStorePattern("*", "S1"), "search:*:store=S1:*"},
		{"search key", SearchKey("brand", "S1", "acme", 2, 20, nil), "search:brand:store=S1:q=acme:page=2:limit=20:filters:none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSearchKeyMatchesStorePattern(t *testing.T) {
	key := SearchKey("product", "S1", "blue widget", 1, 20, map[string][]string{"status": {"active"}})

	for _, pattern := range []string{SearchStorePattern("product", "S1"), SearchStorePattern("*", "S1")} {
		if ok, _ := path.Match(pattern, key); !ok {
			t.Errorf("pattern %q should match %q", pattern, key)
		}
	}
	if ok, _ := path.Match(SearchStorePattern("*", "S2"), key); ok {
		t.Error("pattern for another store must not match")
	}
}

func TestSearchKeyEscapesQuery(t *testing.T) {
	key := SearchKey("product", "S1", "a*b?[c]/d e", 1, 20, nil)
	want := "search:product:store=S1:q=a%2Ab%3F%5Bc%5D%2Fd+e:page=1:limit=20:filters:none"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}

	if ok, _ := path.Match(SearchStorePattern("product", "S1"), key); !ok {
		t.Errorf("store pattern should match %q", key)
	}

	// a key used as a pattern must only ever match itself
	other := SearchKey("product", "S1", "aXb?[c]/d e", 1, 20, nil)
	if ok, _ := path.Match(key, other); ok {
		t.Errorf("%q must not match %q", key, other)
	}
	if ok, _ := path.Match(key, key); !ok {
		t.Errorf("%q should match itself", key)
	}
}

func TestFilterHash(t *testing.T) {
	a := FilterHash(map[string][]string{"status": {"active", "draft"}, "brandId": {"b1"}})
	b := FilterHash(map[string][]string{"brandId": {"b1"}, "status": {"draft", "active"}})
	if a != b {
		t.Errorf("filter hash must ignore ordering: %s vs %s", a, b)
	}

	c := FilterHash(map[string][]string{"status": {"active"}})
	if a == c {
		t.Error("different filters must hash differently")
	}

	if FilterHash(nil) != "none" {
		t.Error("empty filters hash to none")
	}
}
