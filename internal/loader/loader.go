// Package loader pushes fetched tabular content into a CKAN datastore
// table. It implements the upload side of a sync: parse records, infer the
// table schema from column names and write rows in bounded chunks.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ckanutils/ckansync/internal/ckan"
)

// DefaultChunkRows is the default number of rows per upsert call.
const DefaultChunkRows = 1000

// Options configures a Loader.
type Options struct {
	// ChunkRows bounds the rows written per datastore_upsert call.
	ChunkRows int

	// PrimaryKey switches from the drop-and-reload protocol to in-place
	// upserts keyed on these fields.
	PrimaryKey []string

	// Force writes even to read-only resources.
	Force bool
}

// Loader writes tabular records into datastore tables.
type Loader struct {
	client     *ckan.Client
	chunkRows  int
	primaryKey []string
	force      bool
}

// New creates a Loader on top of a CKAN client.
func New(client *ckan.Client, opts Options) *Loader {
	if opts.ChunkRows <= 0 {
		opts.ChunkRows = DefaultChunkRows
	}
	return &Loader{
		client:     client,
		chunkRows:  opts.ChunkRows,
		primaryKey: opts.PrimaryKey,
		force:      opts.Force,
	}
}

// Upload replaces or upserts the datastore table for datastoreID with the
// fetched file's records. Without a primary key the existing table is
// dropped and recreated, so a partial failure never leaves stale rows mixed
// with new ones. Returns nil only when every chunk was written.
func (l *Loader) Upload(ctx context.Context, datastoreID string, fetched *ckan.FetchedResource) error {
	columns, records, err := l.read(fetched)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("loader: resource %s: no records to upload", datastoreID)
	}

	fields := InferFields(columns)
	method := ckan.MethodInsert

	if len(l.primaryKey) > 0 {
		method = ckan.MethodUpsert
	} else {
		// fresh table per load; a missing table on first load is fine
		err := l.client.DatastoreDelete(ctx, &ckan.DatastoreDeleteParams{
			ResourceID: datastoreID,
			Force:      l.force,
		})
		if err != nil && !errors.Is(err, ckan.ErrNotFound) {
			return fmt.Errorf("loader: drop table %s: %w", datastoreID, err)
		}
	}

	err = l.client.DatastoreCreate(ctx, &ckan.DatastoreCreateParams{
		ResourceID: datastoreID,
		Fields:     fields,
		PrimaryKey: l.primaryKey,
		Force:      l.force,
	})
	if err != nil {
		return fmt.Errorf("loader: create table %s: %w", datastoreID, err)
	}

	written := 0
	for chunk := range chunked(records, l.chunkRows) {
		err := l.client.DatastoreUpsert(ctx, &ckan.DatastoreUpsertParams{
			ResourceID: datastoreID,
			Records:    chunk,
			Method:     method,
			Force:      l.force,
		})
		if err != nil {
			return fmt.Errorf("loader: write rows %d-%d to %s: %w", written+1, written+len(chunk), datastoreID, err)
		}
		written += len(chunk)
		slog.Debug("rows written", "datastore_id", datastoreID, "written", written, "total", len(records))
	}

	slog.Info("datastore updated", "datastore_id", datastoreID, "rows", written, "method", method)
	return nil
}

func (l *Loader) read(fetched *ckan.FetchedResource) ([]string, []ckan.Record, error) {
	switch ext := fetched.Ext(); ext {
	case "csv", "txt", "":
		return readDelimited(fetched.Path, ',')
	case "tsv":
		return readDelimited(fetched.Path, '\t')
	default:
		return nil, nil, fmt.Errorf("loader: no reader for format %q", ext)
	}
}

// chunked yields records in groups of at most size.
func chunked(records []ckan.Record, size int) func(func([]ckan.Record) bool) {
	return func(yield func([]ckan.Record) bool) {
		for start := 0; start < len(records); start += size {
			end := min(start+size, len(records))
			if !yield(records[start:end]) {
				return
			}
		}
	}
}
