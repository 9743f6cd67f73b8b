package catalog

import (
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to surfaced catalog errors.
const (
	CodeNotFound = "CATALOG_NOT_FOUND"
	CodeInvalid  = "CATALOG_INVALID"
)

func notFound(entity, id string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryNotFound, entity+" "+id+" not found").
		WithTextCode(CodeNotFound)
}

func invalid(entity string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid "+entity).
		WithTextCode(CodeInvalid)
}

func hasCategory(err error, category goerrors.Category) bool {
	var e *goerrors.Error
	return errors.As(err, &e) && e.Category == category
}

// isMissing recognises a missing row whether the repository surfaces it as
// sql.ErrNoRows or as a categorised error.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || hasCategory(err, goerrors.CategoryNotFound)
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}

// IsInvalid reports whether err was caused by an entity failing validation.
func IsInvalid(err error) bool {
	return hasCategory(err, goerrors.CategoryBadInput)
}
