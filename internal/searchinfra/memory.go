package searchinfra

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// MemoryEngine evaluates queries in process. It mirrors the analysis of
// the Elasticsearch mapping closely enough for development and tests.
type MemoryEngine struct {
	mu      sync.RWMutex
	indexes map[string]*memoryIndex
}

type memoryIndex struct {
	schema query.Schema
	text   map[string]bool
	docs   map[string]query.Document
}

// NewMemoryEngine creates an empty engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{indexes: make(map[string]*memoryIndex)}
}

func newMemoryIndex(schema query.Schema) *memoryIndex {
	if schema.Analyzer.MaxGram == 0 {
		schema.Analyzer = query.DefaultAnalyzer()
	}
	text := make(map[string]bool, len(schema.TextFields))
	for _, f := range schema.TextFields {
		text[f] = true
	}
	return &memoryIndex{schema: schema, text: text, docs: make(map[string]query.Document)}
}

// indexFor returns the named index, creating a schemaless one on write
// like an engine with automatic index creation.
func (e *MemoryEngine) indexFor(name string, create bool) (*memoryIndex, error) {
	if ix, ok := e.indexes[name]; ok {
		return ix, nil
	}
	if !create {
		return nil, fmt.Errorf("index_not_found_exception: no such index [%s]", name)
	}
	ix := newMemoryIndex(query.Schema{})
	e.indexes[name] = ix
	return ix, nil
}

func (e *MemoryEngine) IndexExists(_ context.Context, index string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indexes[index]
	return ok, nil
}

func (e *MemoryEngine) CreateIndex(_ context.Context, index string, schema query.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indexes[index]; ok {
		return fmt.Errorf("resource_already_exists_exception: index [%s] already exists", index)
	}
	e.indexes[index] = newMemoryIndex(schema)
	return nil
}

func (e *MemoryEngine) IndexDocument(_ context.Context, index, id string, doc query.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, _ := e.indexFor(index, true)
	ix.docs[id] = doc
	return nil
}

func (e *MemoryEngine) DeleteDocument(_ context.Context, index, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ix, ok := e.indexes[index]; ok {
		delete(ix.docs, id)
	}
	return nil
}

func (e *MemoryEngine) Bulk(_ context.Context, index string, ops []query.BulkOp) (query.BulkResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, _ := e.indexFor(index, true)

	result := query.BulkResult{Items: make([]query.BulkItem, 0, len(ops))}
	for _, op := range ops {
		item := query.BulkItem{ID: op.ID}
		switch op.Action {
		case query.BulkIndex:
			if _, exists := ix.docs[op.ID]; exists {
				item.Status = 200
			} else {
				item.Status = 201
			}
			ix.docs[op.ID] = op.Doc
		case query.BulkDelete:
			if _, exists := ix.docs[op.ID]; exists {
				item.Status = 200
				delete(ix.docs, op.ID)
			} else {
				item.Status = 404
				item.Error = "not_found"
			}
		default:
			item.Status = 400
			item.Error = "unknown bulk action " + string(op.Action)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (e *MemoryEngine) DeleteByQuery(_ context.Context, index string, q query.Bool) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ix, err := e.indexFor(index, false)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for id, doc := range ix.docs {
		if ok, _ := ix.evalBool(doc, q); ok {
			delete(ix.docs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (e *MemoryEngine) Search(_ context.Context, index string, req query.Request) (query.Response, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ix, err := e.indexFor(index, false)
	if err != nil {
		return query.Response{}, err
	}

	var hits []query.Hit
	for id, doc := range ix.docs {
		if ok, score := ix.evalBool(doc, req.Query); ok {
			hits = append(hits, query.Hit{ID: id, Score: score, Source: doc})
		}
	}
	sortHits(hits, req.Sort)

	resp := query.Response{Total: int64(len(hits))}
	from := req.From
	if from > len(hits) {
		from = len(hits)
	}
	to := len(hits)
	if req.Size > 0 && from+req.Size < to {
		to = from + req.Size
	}
	resp.Hits = hits[from:to]
	return resp, nil
}

func (ix *memoryIndex) eval(doc query.Document, c query.Clause) (bool, float64) {
	switch c := c.(type) {
	case query.MatchAll:
		return true, 1
	case query.Bool:
		return ix.evalBool(doc, c)
	case query.Term:
		return anyValue(doc, c.Field, func(v string) bool { return v == fmt.Sprint(c.Value) }), 0
	case query.Terms:
		return anyValue(doc, c.Field, func(v string) bool {
			for _, want := range c.Values {
				if v == fmt.Sprint(want) {
					return true
				}
			}
			return false
		}), 0
	case query.Wildcard:
		return ix.evalWildcard(doc, c)
	case query.MultiMatch:
		return ix.evalMultiMatch(doc, c)
	default:
		return false, 0
	}
}

func (ix *memoryIndex) evalBool(doc query.Document, b query.Bool) (bool, float64) {
	var score float64
	for _, c := range b.Filter {
		if ok, _ := ix.eval(doc, c); !ok {
			return false, 0
		}
	}
	for _, c := range b.Must {
		ok, s := ix.eval(doc, c)
		if !ok {
			return false, 0
		}
		score += s
	}

	msm := b.MinimumShouldMatch
	if msm == 0 && len(b.Must) == 0 && len(b.Filter) == 0 && len(b.Should) > 0 {
		msm = 1
	}
	matched := 0
	for _, c := range b.Should {
		if ok, s := ix.eval(doc, c); ok {
			matched++
			score += s
		}
	}
	if matched < msm {
		return false, 0
	}
	return true, score
}

func (ix *memoryIndex) evalMultiMatch(doc query.Document, m query.MultiMatch) (bool, float64) {
	terms := words(m.Query)
	if len(terms) == 0 {
		return false, 0
	}
	boost := m.Boost
	if boost == 0 {
		boost = 1
	}

	var best float64
	matched := false
	for _, f := range m.Fields {
		text, ok := fieldText(doc, f.Field)
		if !ok {
			continue
		}
		ws := words(text)
		if len(ws) == 0 {
			continue
		}

		var ratio float64
		switch m.Type {
		case query.Phrase:
			if phraseMatch(ws, terms, m.Slop) {
				ratio = 1
			}
		case query.PhrasePrefix:
			if phrasePrefixMatch(ws, terms) {
				ratio = 1
			}
		default:
			ratio = ix.termRatio(ws, terms, f.Field, m)
		}
		if ratio == 0 {
			continue
		}

		fieldBoost := f.Boost
		if fieldBoost == 0 {
			fieldBoost = 1
		}
		score := boost * fieldBoost * ratio / math.Sqrt(float64(len(ws)))
		if score > best {
			best = score
		}
		matched = true
	}
	return matched, best
}

// termRatio is the weighted share of query terms found among the indexed
// grams of a field. Fuzzy matches count half.
func (ix *memoryIndex) termRatio(ws, terms []string, field string, m query.MultiMatch) float64 {
	var grams map[string]bool
	if ix.text[field] {
		grams = edgeGrams(ws, ix.schema.Analyzer)
	} else {
		grams = make(map[string]bool, len(ws))
		for _, w := range ws {
			grams[w] = true
		}
	}

	var found float64
	for _, t := range terms {
		switch {
		case grams[t]:
			found++
		case m.Fuzziness != "":
			if d, ok := fuzzyMatch(t, grams, m.PrefixLength); ok && d > 0 {
				found += 0.5
			}
		}
	}
	return found / float64(len(terms))
}

func (ix *memoryIndex) evalWildcard(doc query.Document, w query.Wildcard) (bool, float64) {
	pattern := w.Value
	if w.CaseInsensitive {
		pattern = strings.ToLower(pattern)
	}
	re := globToRegexp(pattern)

	ok := anyValue(doc, w.Field, func(v string) bool {
		if w.CaseInsensitive {
			v = strings.ToLower(v)
		}
		return re.MatchString(v)
	})
	if !ok {
		return false, 0
	}
	boost := w.Boost
	if boost == 0 {
		boost = 1
	}
	return true, boost
}

func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// resolve looks up field, reading a keyword sub-field from its parent.
func resolve(doc query.Document, field string) (any, bool) {
	if v, ok := doc.Lookup(field); ok {
		return v, true
	}
	if base, found := strings.CutSuffix(field, query.KeywordSuffix); found {
		return doc.Lookup(base)
	}
	return nil, false
}

func fieldText(doc query.Document, field string) (string, bool) {
	v, ok := resolve(doc, field)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// anyValue applies match to the field value, or to each element of an
// array value.
func anyValue(doc query.Document, field string, match func(string) bool) bool {
	v, ok := resolve(doc, field)
	if !ok || v == nil {
		return false
	}
	switch vs := v.(type) {
	case []any:
		for _, el := range vs {
			if match(fmt.Sprint(el)) {
				return true
			}
		}
		return false
	case []string:
		for _, el := range vs {
			if match(el) {
				return true
			}
		}
		return false
	default:
		return match(fmt.Sprint(v))
	}
}

func sortHits(hits []query.Hit, fields []query.SortField) {
	sort.SliceStable(hits, func(i, j int) bool {
		for _, f := range fields {
			c := compareHits(hits[i], hits[j], f.Field)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return hits[i].ID < hits[j].ID
	})
}

func compareHits(a, b query.Hit, field string) int {
	if field == query.ScoreField {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		default:
			return 0
		}
	}

	va, okA := resolve(a.Source, field)
	vb, okB := resolve(b.Source, field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}

	if fa, ok := toFloat(va); ok {
		if fb, ok := toFloat(vb); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprint(va), fmt.Sprint(vb))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
