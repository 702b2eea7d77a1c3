// Package hashtable stores the last successfully uploaded digest per
// datastore resource, so unchanged content can be skipped on the next sync.
//
// Two backends implement the same contract: RemoteStore keeps the table in
// a CKAN datastore resource (shared across machines), Journal keeps it in a
// local SQLite database.
package hashtable

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable means the backing store could not be reached.
	// Transient: callers may retry the same operation.
	ErrStoreUnavailable = errors.New("hashtable: store unavailable")

	// ErrStoreCorrupt means the backing store exists but its schema or
	// contents are not what we expect. Fatal: retrying risks skipping or
	// re-uploading incorrectly, so this needs operator attention.
	ErrStoreCorrupt = errors.New("hashtable: store corrupt")
)

// Store maps a datastore resource id to the digest of its last successfully
// uploaded content.
type Store interface {
	// Get returns the recorded digest for datastoreID. ok is false when no
	// record exists, which is the expected state before the first sync.
	Get(ctx context.Context, datastoreID string) (digest string, ok bool, err error)

	// Put upserts the record for datastoreID. It is idempotent and safe to
	// retry with the same digest.
	Put(ctx context.Context, datastoreID string, digest string) error
}
