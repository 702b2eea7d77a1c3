package hashtable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ckanutils/ckansync/internal/ckan"
)

// Column names of the remote hash table resource.
const (
	colDatastoreID = "datastore_id"
	colHash        = "hash"
)

// RemoteStore keeps the hash table in a CKAN datastore resource with the
// two-column schema (datastore_id TEXT primary key, hash TEXT).
type RemoteStore struct {
	client     *ckan.Client
	resourceID string
}

var _ Store = (*RemoteStore)(nil)

// NewRemoteStore creates a store backed by the given datastore resource.
// The resource must already exist; see EnsureTable.
func NewRemoteStore(client *ckan.Client, resourceID string) (*RemoteStore, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: hash table resource id missing", ErrStoreUnavailable)
	}
	return &RemoteStore{
		client:     client,
		resourceID: resourceID,
	}, nil
}

// Get looks up the stored digest via datastore_search.
func (s *RemoteStore) Get(ctx context.Context, datastoreID string) (string, bool, error) {
	result, err := s.client.DatastoreSearch(ctx, &ckan.DatastoreSearchParams{
		ResourceID: s.resourceID,
		Filters:    map[string]string{colDatastoreID: datastoreID},
		Fields:     colHash,
		Limit:      1,
	})
	if err != nil {
		return "", false, s.classify("get", datastoreID, err)
	}

	if len(result.Records) == 0 {
		// expected on the first sync of a resource
		return "", false, nil
	}

	digest, ok := result.Records[0][colHash].(string)
	if !ok || digest == "" {
		return "", false, fmt.Errorf("%w: row for %s has no hash value", ErrStoreCorrupt, datastoreID)
	}

	return digest, true, nil
}

// Put upserts the digest via datastore_upsert, keyed on datastore_id.
func (s *RemoteStore) Put(ctx context.Context, datastoreID string, digest string) error {
	err := s.client.DatastoreUpsert(ctx, &ckan.DatastoreUpsertParams{
		ResourceID: s.resourceID,
		Records: []ckan.Record{
			{colDatastoreID: datastoreID, colHash: digest},
		},
		Method: ckan.MethodUpsert,
		Force:  true,
	})
	if err != nil {
		return s.classify("put", datastoreID, err)
	}

	slog.Debug("hash table updated", "datastore_id", datastoreID, "hash", digest)
	return nil
}

// EnsureTable provisions the hash table schema on the backing resource.
// This is an administrative action; sync never calls it implicitly.
func (s *RemoteStore) EnsureTable(ctx context.Context) error {
	err := s.client.DatastoreCreate(ctx, &ckan.DatastoreCreateParams{
		ResourceID: s.resourceID,
		Fields: []ckan.Field{
			{ID: colDatastoreID, Type: "text"},
			{ID: colHash, Type: "text"},
		},
		PrimaryKey: []string{colDatastoreID},
		Force:      true,
	})
	if err != nil {
		return s.classify("ensure table", "", err)
	}
	return nil
}

// classify maps client errors onto the store taxonomy. A missing or
// misconfigured hash table resource is fatal (provisioning problem),
// anything transport-shaped is retryable.
func (s *RemoteStore) classify(op, datastoreID string, err error) error {
	switch {
	case errors.Is(err, ckan.ErrNotFound), errors.Is(err, ckan.ErrValidation), errors.Is(err, ckan.ErrNotAuthorized):
		return fmt.Errorf("%w: %s %s on table %s: %v", ErrStoreCorrupt, op, datastoreID, s.resourceID, err)
	default:
		return fmt.Errorf("%w: %s %s: %v", ErrStoreUnavailable, op, datastoreID, err)
	}
}
