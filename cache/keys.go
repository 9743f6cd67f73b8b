package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key naming scheme shared by every caller that wants its entries to be
// reachable by the eviction patterns below. Wildcards are always a trailing
// "*" against one of these prefixes.

// EntityKey addresses a single record: {entity}:{id}.
func EntityKey(entity, id string) string {
	return entity + KeySeparator + id
}

// StoreKey addresses store scoped data: store:{storeID}:{dataType}.
func StoreKey(storeID, dataType string) string {
	return "store" + KeySeparator + storeID + KeySeparator + dataType
}

// UserKey addresses user scoped data: user:{userID}:{dataType}.
func UserKey(userID, dataType string) string {
	return "user" + KeySeparator + userID + KeySeparator + dataType
}

// SearchKey addresses one page of search results for an entity type in a store.
func SearchKey(entityType, storeID, query string, page, limit int, filters map[string][]string) string {
	return fmt.Sprintf("search:%s:store=%s:q=%s:page=%d:limit=%d:filters:%s",
		entityType, storeID, QueryComponent(query), page, limit, FilterHash(filters))
}

// QueryComponent percent-encodes free text for use inside a key, so glob
// metacharacters, separators and slashes never reach a pattern match.
func QueryComponent(q string) string {
	return url.QueryEscape(q)
}

// StorePattern matches every store scoped key of storeID.
func StorePattern(storeID string) string {
	return StoreKey(storeID, "*")
}

// StoreDataPattern matches store:{storeID}:{dataType} and its extensions.
func StoreDataPattern(storeID, dataType string) string {
	return StoreKey(storeID, dataType) + "*"
}

// UserPattern matches every user scoped key of userID.
func UserPattern(userID string) string {
	return UserKey(userID, "*")
}

// SearchStorePattern matches every cached search page of entityType in
// storeID. Pass "*" as entityType to span all types.
func SearchStorePattern(entityType, storeID string) string {
	return fmt.Sprintf("search:%s:store=%s:*", entityType, storeID)
}

// FilterHash renders filters as sorted k=v pairs and hashes them so that
// equal filter bags produce the same key segment regardless of order.
func FilterHash(filters map[string][]string) string {
	if len(filters) == 0 {
		return "none"
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		values := append([]string(nil), filters[name]...)
		sort.Strings(values)
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, ","))
		b.WriteByte(';')
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
