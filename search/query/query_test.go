package query

import (
	"encoding/json"
	"testing"
)

func TestParseTotal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "bare number", raw: `42`, want: 42},
		{name: "object", raw: `{"value": 7, "relation": "eq"}`, want: 7},
		{name: "object lower bound", raw: `{"value": 10000, "relation": "gte"}`, want: 10000},
		{name: "float", raw: `3.0`, want: 3},
		{name: "null", raw: `null`, want: 0},
		{name: "empty", raw: ``, want: 0},
		{name: "object without value", raw: `{"relation": "eq"}`, want: 0},
		{name: "string", raw: `"many"`, wantErr: true},
		{name: "array", raw: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTotal(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDocumentLookup(t *testing.T) {
	doc := Document{
		"name":    "Widget",
		"storeId": "s1",
		"store":   map[string]any{"id": "s1", "name": "Main"},
		"brand":   Document{"name": "Acme"},
	}

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"name", "Widget", true},
		{"store.name", "Main", true},
		{"brand.name", "Acme", true},
		{"store.missing", nil, false},
		{"name.sub", nil, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		got, ok := doc.Lookup(tt.path)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Lookup(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFieldBoostString(t *testing.T) {
	if got := (FieldBoost{Field: "name", Boost: 3}).String(); got != "name^3" {
		t.Fatalf("unexpected %q", got)
	}
	if got := (FieldBoost{Field: "name", Boost: 1.5}).String(); got != "name^1.5" {
		t.Fatalf("unexpected %q", got)
	}
	if got := (FieldBoost{Field: "name"}).String(); got != "name" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestBulkResultFailed(t *testing.T) {
	r := BulkResult{Items: []BulkItem{
		{ID: "1", Status: 201},
		{ID: "2", Status: 400, Error: "mapper_parsing_exception"},
		{ID: "3", Status: 200},
		{ID: "4", Status: 429},
	}}
	failed := r.Failed()
	if len(failed) != 2 || failed[0].ID != "2" || failed[1].ID != "4" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
