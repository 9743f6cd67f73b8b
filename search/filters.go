package search

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Reserved filter keys consumed by pagination, sorting and the query text.
const (
	FilterPage  = "page"
	FilterLimit = "limit"
	FilterSort  = "sort"
	FilterQuery = "q"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var reservedFilters = map[string]bool{
	FilterPage:  true,
	FilterLimit: true,
	FilterSort:  true,
	FilterQuery: true,
}

// Filters is a filter bag. A repeated key matches any of its values;
// distinct keys must all match.
type Filters map[string][]string

// FiltersFromValues copies url query values, dropping empty values.
func FiltersFromValues(values url.Values) Filters {
	f := make(Filters, len(values))
	for k, vs := range values {
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				f[k] = append(f[k], v)
			}
		}
	}
	return f
}

// Set replaces the values of key.
func (f Filters) Set(key string, values ...string) Filters {
	f[key] = values
	return f
}

func (f Filters) first(key string) string {
	if vs := f[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Page returns the requested page, 1 when absent or invalid.
func (f Filters) Page() int {
	page, err := strconv.Atoi(f.first(FilterPage))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Limit returns the page size, DefaultLimit when absent and at most MaxLimit.
func (f Filters) Limit() int {
	limit, err := strconv.Atoi(f.first(FilterLimit))
	if err != nil || limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Sort returns the secondary sort field and direction. A leading '-'
// requests descending order.
func (f Filters) Sort() (field string, desc bool) {
	s := f.first(FilterSort)
	if strings.HasPrefix(s, "-") {
		return s[1:], true
	}
	return s, false
}

// Query returns the q filter.
func (f Filters) Query() string {
	return strings.TrimSpace(f.first(FilterQuery))
}

// Terms returns the non reserved filters with sorted keys.
func (f Filters) Terms() []string {
	keys := make([]string, 0, len(f))
	for k, vs := range f {
		if reservedFilters[k] || len(vs) == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the reserved keys and that every term filter names an
// allowed field.
func (f Filters) Validate(allowed []string) error {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}

	page, limit := f.first(FilterPage), f.first(FilterLimit)
	err := validation.Errors{
		FilterPage:  validation.Validate(page, validation.When(page != "", validation.By(positiveInt))),
		FilterLimit: validation.Validate(limit, validation.When(limit != "", validation.By(positiveInt))),
	}.Filter()
	if err != nil {
		return badInput(err, "invalid pagination")
	}

	for _, k := range f.Terms() {
		if !allow[k] {
			return badInput(fmt.Errorf("field %q cannot be filtered", k), "invalid filter")
		}
	}

	if field, _ := f.Sort(); field != "" && !allow[field] {
		return badInput(fmt.Errorf("field %q cannot be sorted", field), "invalid sort")
	}
	return nil
}

func positiveInt(value any) error {
	s, _ := value.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

// termMap returns the term filters for cache key hashing.
func (f Filters) termMap() map[string][]string {
	out := make(map[string][]string)
	for _, k := range f.Terms() {
		out[k] = f[k]
	}
	return out
}
