package store

import (
	"errors"
	"fmt"
)

// Kind categorizes every error returned by Store operations.
type Kind string

const (
	// KindDuplicateName indicates a list with the same name already exists.
	KindDuplicateName Kind = "duplicate_name"

	// KindNoSuchList indicates the referenced list does not exist.
	KindNoSuchList Kind = "no_such_list"

	// KindNoSuchItem indicates the referenced item does not exist.
	KindNoSuchItem Kind = "no_such_item"

	// KindInfrastructure covers store, transport and serialization failures
	// that are not one of the kinds above.
	KindInfrastructure Kind = "infrastructure"
)

// Error is the single error type crossing the Store boundary.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op is the operation that failed.
	Op Op

	// ID is the list or item id the operation referenced, if any.
	ID int64

	// Name is the list name the operation referenced, if any.
	Name string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindDuplicateName:
		return fmt.Sprintf("duplicate list name %q", e.Name)
	case KindNoSuchList:
		return fmt.Sprintf("no such list (id: %d)", e.ID)
	case KindNoSuchItem:
		return fmt.Sprintf("no such item (id: %d)", e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: infrastructure failure: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: infrastructure failure", e.Op)
}

// Unwrap returns the underlying driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that did not come from the store
// are reported as KindInfrastructure; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInfrastructure
}

// IsDuplicateName reports whether err is a duplicate list name error.
func IsDuplicateName(err error) bool {
	return err != nil && KindOf(err) == KindDuplicateName
}

// IsNoSuchList reports whether err is a missing list error.
func IsNoSuchList(err error) bool {
	return err != nil && KindOf(err) == KindNoSuchList
}

// IsNoSuchItem reports whether err is a missing item error.
func IsNoSuchItem(err error) bool {
	return err != nil && KindOf(err) == KindNoSuchItem
}

// IsInfrastructure reports whether err is an unclassified store failure.
func IsInfrastructure(err error) bool {
	return err != nil && KindOf(err) == KindInfrastructure
}

// IsClientError reports whether err was caused by the request rather than
// the server: duplicate names and references to missing entities.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindDuplicateName, KindNoSuchList, KindNoSuchItem:
		return true
	}
	return false
}
