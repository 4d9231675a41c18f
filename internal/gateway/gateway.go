// Package gateway isolates the five KV-store primitives the append and
// retrieval engines are built on (§4.1). Nothing above this package ever
// imports the DynamoDB SDK directly — engines depend on the Gateway
// interface, the same separation the teacher draws between
// internal/transaction (business logic) and internal/storage (the thing
// that actually touches bytes on disk).
package gateway

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Sentinel conditions a Gateway implementation reports back to the
// engines. These are expected race outcomes per §7's propagation policy,
// not protocol-level errors: callers of Gateway handle them locally and
// never let them escape to the public API unchanged.
var (
	// ErrAlreadyExists is returned by PutIfAbsent when the key is already
	// present.
	ErrAlreadyExists = errors.New("gateway: item already exists")

	// ErrItemMissing is returned by AppendToList when the target item
	// does not exist yet.
	ErrItemMissing = errors.New("gateway: item missing")

	// ErrPreconditionFailed is returned by IncrementIfAtLeast when the
	// stored counter no longer equals the supplied floor.
	ErrPreconditionFailed = errors.New("gateway: precondition failed")

	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("gateway: not found")
)

// Gateway is the façade over the remote KV store. Every method is a single
// network round trip; there is no batching of round trips within one call.
type Gateway interface {
	// PutIfAbsent creates item under key atomically, failing with
	// ErrAlreadyExists if key is already present. Never overwrites.
	PutIfAbsent(ctx context.Context, table, key string, item map[string]types.AttributeValue) error

	// Get reads the item at key, optionally projecting only the named
	// fields. Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, table, key string, projection []string) (map[string]types.AttributeValue, error)

	// AppendToList atomically appends value to the list-valued attribute
	// field on the item at key and returns the list's new length.
	// Returns ErrItemMissing if the item does not exist.
	AppendToList(ctx context.Context, table, key, field string, value string) (int, error)

	// IncrementIfAtLeast atomically advances field by 1 if and only if
	// its current value equals floor, returning the new value. Returns
	// ErrPreconditionFailed if the current value is not floor.
	IncrementIfAtLeast(ctx context.Context, table, key, field string, floor int) (int, error)

	// BulkGet reads up to len(keys) items in one round trip. Missing keys
	// are simply absent from the result map; a partial result is a
	// success.
	BulkGet(ctx context.Context, table string, keys []string) (map[string]map[string]types.AttributeValue, error)
}
