package search

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jinzhu/inflection"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// TextField is a full text field and its relevance boost.
type TextField struct {
	Name  string
	Boost float64
}

// Descriptor maps an entity type onto its search index.
type Descriptor[E any] struct {
	// EntityType is the singular type name, e.g. "brand".
	EntityType string
	// IndexName defaults to the plural of EntityType.
	IndexName     string
	TextFields    []TextField
	KeywordFields []string
	NumericFields []string
	DateFields    []string
	// StoreField holds the owning store id in every document.
	StoreField string
	// SortField is the default tie breaker after relevance.
	SortField string

	ID      func(E) string
	StoreID func(E) string
	// Flatten projects an entity and its relations into a document. It must
	// be pure.
	Flatten func(E) query.Document
}

// Validate checks that the descriptor is usable.
func (d Descriptor[E]) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.EntityType, validation.Required),
		validation.Field(&d.TextFields, validation.Required),
		validation.Field(&d.StoreField, validation.Required),
	); err != nil {
		return err
	}

	missing := validation.Errors{}
	if d.ID == nil {
		missing["ID"] = errMissingFunc
	}
	if d.StoreID == nil {
		missing["StoreID"] = errMissingFunc
	}
	if d.Flatten == nil {
		missing["Flatten"] = errMissingFunc
	}
	return missing.Filter()
}

var errMissingFunc = errors.New("cannot be nil")

func (d Descriptor[E]) indexName(prefix string) string {
	name := d.IndexName
	if name == "" {
		name = inflection.Plural(d.EntityType)
	}
	return prefix + name
}

// Schema derives the index schema.
func (d Descriptor[E]) Schema() query.Schema {
	s := query.Schema{
		KeywordFields: append([]string{d.StoreField}, d.KeywordFields...),
		NumericFields: append([]string(nil), d.NumericFields...),
		DateFields:    append([]string(nil), d.DateFields...),
		Analyzer:      query.DefaultAnalyzer(),
	}
	for _, f := range d.TextFields {
		s.TextFields = append(s.TextFields, f.Name)
	}
	return s
}

func (d Descriptor[E]) isText(field string) bool {
	for _, f := range d.TextFields {
		if f.Name == field {
			return true
		}
	}
	return false
}

// exactField names the field used to filter or order by field. Text
// fields resolve to their exact match sub-field.
func (d Descriptor[E]) exactField(field string) string {
	if d.isText(field) {
		return field + query.KeywordSuffix
	}
	return field
}

// filterable lists the fields accepted as term filters or sort keys.
func (d Descriptor[E]) filterable() []string {
	out := []string{d.StoreField}
	out = append(out, d.KeywordFields...)
	out = append(out, d.NumericFields...)
	out = append(out, d.DateFields...)
	for _, f := range d.TextFields {
		out = append(out, f.Name)
	}
	return out
}
