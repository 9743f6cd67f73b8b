package searchinfra

import (
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// renderClause turns a clause into the Elasticsearch query DSL.
func renderClause(c query.Clause) map[string]any {
	switch c := c.(type) {
	case query.MatchAll:
		return map[string]any{"match_all": map[string]any{}}
	case query.Term:
		return map[string]any{"term": map[string]any{c.Field: c.Value}}
	case query.Terms:
		return map[string]any{"terms": map[string]any{c.Field: c.Values}}
	case query.Wildcard:
		body := map[string]any{"value": c.Value}
		if c.CaseInsensitive {
			body["case_insensitive"] = true
		}
		if c.Boost != 0 {
			body["boost"] = c.Boost
		}
		return map[string]any{"wildcard": map[string]any{c.Field: body}}
	case query.MultiMatch:
		fields := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			fields[i] = f.String()
		}
		body := map[string]any{"query": c.Query, "fields": fields}
		if c.Type != "" {
			body["type"] = string(c.Type)
		}
		if c.Fuzziness != "" {
			body["fuzziness"] = c.Fuzziness
			body["prefix_length"] = c.PrefixLength
		}
		if c.Slop != 0 {
			body["slop"] = c.Slop
		}
		if c.Boost != 0 {
			body["boost"] = c.Boost
		}
		return map[string]any{"multi_match": body}
	case query.Bool:
		return map[string]any{"bool": renderBool(c)}
	default:
		return map[string]any{"match_none": map[string]any{}}
	}
}

func renderBool(b query.Bool) map[string]any {
	out := map[string]any{}
	if len(b.Must) > 0 {
		out["must"] = renderClauses(b.Must)
	}
	if len(b.Should) > 0 {
		out["should"] = renderClauses(b.Should)
	}
	if len(b.Filter) > 0 {
		out["filter"] = renderClauses(b.Filter)
	}
	if b.MinimumShouldMatch > 0 {
		out["minimum_should_match"] = b.MinimumShouldMatch
	}
	return out
}

func renderClauses(cs []query.Clause) []map[string]any {
	out := make([]map[string]any, len(cs))
	for i, c := range cs {
		out[i] = renderClause(c)
	}
	return out
}

func renderRequest(req query.Request) map[string]any {
	body := map[string]any{
		"query": map[string]any{"bool": renderBool(req.Query)},
		"from":  req.From,
		"size":  req.Size,
	}
	if len(req.Sort) > 0 {
		sorts := make([]map[string]any, len(req.Sort))
		for i, s := range req.Sort {
			order := "asc"
			if s.Desc {
				order = "desc"
			}
			sorts[i] = map[string]any{s.Field: map[string]any{"order": order}}
		}
		body["sort"] = sorts
	}
	return body
}

const gramFilter = "autocomplete_filter"

// renderSchema builds the index settings and mappings: the autocomplete
// analyzer (lowercase plus edge n-grams) on every text field, searched with
// the standard analyzer, and a keyword sub-field for exact matching.
func renderSchema(s query.Schema) map[string]any {
	a := s.Analyzer
	if a.Name == "" {
		a = query.DefaultAnalyzer()
	}

	props := map[string]any{}
	for _, f := range s.TextFields {
		props[f] = map[string]any{
			"type":            "text",
			"analyzer":        a.Name,
			"search_analyzer": "standard",
			"fields": map[string]any{
				"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
			},
		}
	}
	for _, f := range s.KeywordFields {
		props[f] = map[string]any{"type": "keyword"}
	}
	for _, f := range s.NumericFields {
		props[f] = map[string]any{"type": "double"}
	}
	for _, f := range s.DateFields {
		props[f] = map[string]any{"type": "date"}
	}

	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"filter": map[string]any{
					gramFilter: map[string]any{
						"type":     "edge_ngram",
						"min_gram": a.MinGram,
						"max_gram": a.MaxGram,
					},
				},
				"analyzer": map[string]any{
					a.Name: map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", gramFilter},
					},
				},
			},
		},
		"mappings": map[string]any{"properties": props},
	}
}
