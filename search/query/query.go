// Package query is the engine neutral search protocol: index schema,
// query clauses, requests and responses. Engines render it into their own
// wire format.
package query

import (
	"strconv"
)

// Document is a flattened entity as stored in an index.
type Document map[string]any

// Lookup resolves a dotted path such as "store.name".
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[path[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	default:
		return nil, false
	}
}

// KeywordSuffix names the exact match sub-field of a text field.
const KeywordSuffix = ".keyword"

// ScoreField sorts by relevance.
const ScoreField = "_score"

// FieldBoost weights a field in a multi-field match.
type FieldBoost struct {
	Field string
	Boost float64
}

func (f FieldBoost) String() string {
	if f.Boost == 0 || f.Boost == 1 {
		return f.Field
	}
	return f.Field + "^" + strconv.FormatFloat(f.Boost, 'f', -1, 64)
}

// MatchType selects how a MultiMatch combines its fields.
type MatchType string

const (
	BestFields   MatchType = "best_fields"
	Phrase       MatchType = "phrase"
	PhrasePrefix MatchType = "phrase_prefix"
)

// FuzzinessAuto lets the engine pick the edit distance from term length.
const FuzzinessAuto = "AUTO"

// Clause is one node of a query.
type Clause interface {
	clause()
}

// MultiMatch runs Query against several fields.
type MultiMatch struct {
	Query        string
	Fields       []FieldBoost
	Type         MatchType
	Fuzziness    string
	PrefixLength int
	Slop         int
	Boost        float64
}

// Wildcard matches Value (with * and ?) against an unanalysed field.
type Wildcard struct {
	Field           string
	Value           string
	CaseInsensitive bool
	Boost           float64
}

// Term matches an exact value.
type Term struct {
	Field string
	Value any
}

// Terms matches any of Values.
type Terms struct {
	Field  string
	Values []any
}

// MatchAll matches every document.
type MatchAll struct{}

// Bool combines clauses. Must and Filter are conjunctive; at least
// MinimumShouldMatch of Should must match when Should is not empty.
type Bool struct {
	Must               []Clause
	Should             []Clause
	Filter             []Clause
	MinimumShouldMatch int
}

func (MultiMatch) clause() {}
func (Wildcard) clause()   {}
func (Term) clause()       {}
func (Terms) clause()      {}
func (MatchAll) clause()   {}
func (Bool) clause()       {}

// SortField orders results.
type SortField struct {
	Field string
	Desc  bool
}

// Request is a paginated search.
type Request struct {
	Query Bool
	From  int
	Size  int
	Sort  []SortField
}

// Hit is one matching document.
type Hit struct {
	ID     string
	Score  float64
	Source Document
}

// Response is the engine neutral result envelope.
type Response struct {
	Total int64
	Hits  []Hit
}

// BulkAction is the kind of a bulk operation.
type BulkAction string

const (
	BulkIndex  BulkAction = "index"
	BulkDelete BulkAction = "delete"
)

// BulkOp is one line of a bulk request.
type BulkOp struct {
	Action BulkAction
	ID     string
	Doc    Document
}

// BulkItem reports the outcome of one BulkOp.
type BulkItem struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BulkResult collects bulk item outcomes.
type BulkResult struct {
	Items []BulkItem
}

// Failed returns the items that did not succeed.
func (r BulkResult) Failed() []BulkItem {
	var out []BulkItem
	for _, item := range r.Items {
		if item.Error != "" || item.Status >= 300 {
			out = append(out, item)
		}
	}
	return out
}
