// Package errs defines the typed error kinds surfaced by the list protocol.
//
// It mirrors the shape of the teacher's database error type (a small code,
// a message, and a wrapped cause) but exposes each kind as its own sentinel
// so callers can branch with errors.Is instead of comparing codes.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Compare with errors.Is, not direct equality, since every
// constructor below wraps one of these with call-specific context.
var (
	// ErrCreateNewPage is returned when AtomicAppend's create-then-retry
	// recovery (§4.3 step 3) still sees ItemMissing on the retry.
	ErrCreateNewPage = errors.New("createNewPageException: page could not be created after one retry")

	// ErrStoreUnavailable wraps a transport/availability failure from the
	// KV store. Callers are expected to retry with backoff.
	ErrStoreUnavailable = errors.New("storeUnavailable: kv store transport error")

	// ErrPageNotFound is returned by GetCurrentPage/GetPage/GetSummary
	// when the list itself (its summary item) has never been created.
	// It is distinct from a missing data page during a walk, which is
	// silently treated as empty.
	ErrPageNotFound = errors.New("pageNotFound: list summary does not exist")

	// ErrInvalidCursor is returned when a cursor is missing PageID or
	// SequenceID.
	ErrInvalidCursor = errors.New("invalidCursor: cursor missing page_id or sequence_id")

	// ErrNotImplemented is returned by the reserved bulk-append entry
	// point.
	ErrNotImplemented = errors.New("notImplemented: bulk append is not implemented")
)

// CreateNewPage wraps ErrCreateNewPage with the list/page that failed.
func CreateNewPage(listID string, page int) error {
	return fmt.Errorf("%w: list=%q page=%d", ErrCreateNewPage, listID, page)
}

// StoreUnavailable wraps ErrStoreUnavailable with the underlying transport
// error, preserving it for errors.Unwrap/errors.As.
func StoreUnavailable(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, cause)
}

// PageNotFound wraps ErrPageNotFound with the offending list id.
func PageNotFound(listID string) error {
	return fmt.Errorf("%w: list=%q", ErrPageNotFound, listID)
}

// InvalidCursor wraps ErrInvalidCursor with a reason.
func InvalidCursor(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCursor, reason)
}
