package ckan

import (
	"context"
	"fmt"
)

// DatastoreSearch queries rows from a datastore table.
func (c *Client) DatastoreSearch(ctx context.Context, params *DatastoreSearchParams) (*DatastoreSearchResult, error) {
	var result DatastoreSearchResult
	if err := c.action(ctx, "datastore_search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DatastoreCreate creates a datastore table for an existing filestore
// resource.
func (c *Client) DatastoreCreate(ctx context.Context, params *DatastoreCreateParams) error {
	if len(params.Fields) == 0 {
		return fmt.Errorf("ckan: datastore_create: %w: fields required", ErrValidation)
	}
	return c.action(ctx, "datastore_create", params, nil)
}

// DatastoreUpsert writes records into a datastore table. The method decides
// whether existing rows (by primary key) are replaced or duplicated.
func (c *Client) DatastoreUpsert(ctx context.Context, params *DatastoreUpsertParams) error {
	if params.Method == "" {
		params.Method = MethodInsert
	}
	return c.action(ctx, "datastore_upsert", params, nil)
}

// DatastoreDelete drops a datastore table, or only the rows matching
// params.Filters when set.
func (c *Client) DatastoreDelete(ctx context.Context, params *DatastoreDeleteParams) error {
	return c.action(ctx, "datastore_delete", params, nil)
}
