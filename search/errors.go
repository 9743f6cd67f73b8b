package search

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to surfaced search errors.
const (
	CodeEngineError   = "SEARCH_ENGINE_ERROR"
	CodeInvalidFilter = "SEARCH_INVALID_FILTER"
	CodeUnknownType   = "SEARCH_UNKNOWN_TYPE"
)

func engineError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, msg).WithTextCode(CodeEngineError)
}

func badInput(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, msg).WithTextCode(CodeInvalidFilter)
}

func unknownType(entityType string) error {
	return goerrors.New("unknown search entity type: "+entityType, goerrors.CategoryNotFound).
		WithTextCode(CodeUnknownType)
}

func hasCategory(err error, category goerrors.Category) bool {
	var e *goerrors.Error
	return errors.As(err, &e) && e.Category == category
}

// IsEngineError reports whether err came from the search engine, as opposed
// to bad input or an unknown entity type.
func IsEngineError(err error) bool {
	return hasCategory(err, goerrors.CategoryExternal)
}

// IsBadInput reports whether err was caused by invalid filters.
func IsBadInput(err error) bool {
	return hasCategory(err, goerrors.CategoryBadInput)
}

// IsNotFound reports whether err names an unregistered entity type.
func IsNotFound(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}
