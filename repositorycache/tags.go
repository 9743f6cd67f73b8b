package repositorycache

import (
	"context"
)

type evictPatternsContextKey struct{}

// WithEvictPatterns attaches additional cache patterns that a successful
// write through a CachedRepository evicts, e.g. listings of a parent entity
// that embed the written record.
func WithEvictPatterns(ctx context.Context, patterns ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(patterns) == 0 {
		return ctx
	}

	existing := evictPatternsFromContext(ctx)
	combined := dedupeStrings(append(existing, patterns...))
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, evictPatternsContextKey{}, combined)
}

func evictPatternsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if patterns, ok := ctx.Value(evictPatternsContextKey{}).([]string); ok {
		return append([]string(nil), patterns...)
	}
	return nil
}

// dedupeStrings drops empty and repeated values, keeping first occurrences.
func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
