package search

import (
	"strings"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

const (
	phraseSlop        = 2
	fuzzyPrefixLength = 1
	phraseBoost       = 2
	phrasePrefixBoost = 1.5
	wildcardBoost     = 0.5
)

// BuildRequest assembles the relevance query for q, scoped by the term
// filters in f and paginated by its reserved keys.
//
// The text query is a disjunction of boosted multi-field matching, fuzzy
// matching, phrase matching with slop, phrase-prefix matching and a
// substring wildcard on the sort field. Term filters form a conjunction;
// repeated values of one key are alternatives. Filters on text fields
// match their exact sub-field, never the analysed text.
func BuildRequest[E any](d Descriptor[E], q string, f Filters) query.Request {
	var b query.Bool

	for _, key := range f.Terms() {
		values, field := f[key], d.exactField(key)
		if len(values) == 1 {
			b.Filter = append(b.Filter, query.Term{Field: field, Value: values[0]})
			continue
		}
		terms := make([]any, len(values))
		for i, v := range values {
			terms[i] = v
		}
		b.Filter = append(b.Filter, query.Terms{Field: field, Values: terms})
	}

	if q = strings.TrimSpace(q); q == "" {
		b.Must = []query.Clause{query.MatchAll{}}
	} else {
		b.Should = textClauses(d, q)
		b.MinimumShouldMatch = 1
	}

	page, limit := f.Page(), f.Limit()
	return query.Request{
		Query: b,
		From:  (page - 1) * limit,
		Size:  limit,
		Sort:  sortFor(d, f),
	}
}

func textClauses[E any](d Descriptor[E], q string) []query.Clause {
	boosted := make([]query.FieldBoost, 0, len(d.TextFields))
	plain := make([]query.FieldBoost, 0, len(d.TextFields))
	for _, f := range d.TextFields {
		boosted = append(boosted, query.FieldBoost{Field: f.Name, Boost: f.Boost})
		plain = append(plain, query.FieldBoost{Field: f.Name})
	}

	clauses := []query.Clause{
		query.MultiMatch{Query: q, Fields: boosted, Type: query.BestFields},
		query.MultiMatch{
			Query:        q,
			Fields:       plain,
			Type:         query.BestFields,
			Fuzziness:    query.FuzzinessAuto,
			PrefixLength: fuzzyPrefixLength,
		},
		query.MultiMatch{Query: q, Fields: boosted, Type: query.Phrase, Slop: phraseSlop, Boost: phraseBoost},
		query.MultiMatch{Query: q, Fields: boosted, Type: query.PhrasePrefix, Boost: phrasePrefixBoost},
	}

	if d.SortField != "" {
		needle := strings.NewReplacer("*", "", "?", "").Replace(strings.ToLower(q))
		if needle != "" {
			clauses = append(clauses, query.Wildcard{
				Field:           d.exactField(d.SortField),
				Value:           "*" + needle + "*",
				CaseInsensitive: true,
				Boost:           wildcardBoost,
			})
		}
	}
	return clauses
}

func sortFor[E any](d Descriptor[E], f Filters) []query.SortField {
	sort := []query.SortField{{Field: query.ScoreField, Desc: true}}

	field, desc := f.Sort()
	if field == "" {
		field, desc = d.SortField, false
	}
	if field != "" {
		sort = append(sort, query.SortField{Field: d.exactField(field), Desc: desc})
	}
	return sort
}
