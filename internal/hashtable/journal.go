package hashtable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ckanutils/ckansync/internal/db"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS hash_table (
    datastore_id TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);
`

// journalRow is the scan target for the hash_table table.
type journalRow struct {
	DatastoreID string `db:"datastore_id"`
	Hash        string `db:"hash"`
	UpdatedAt   string `db:"updated_at"`
}

// Journal is a hash table backed by a local SQLite database, for
// deployments that don't share a remote hash table resource.
type Journal struct {
	db     *sqlx.DB
	dbPath string
}

var _ Store = (*Journal)(nil)

// NewJournal creates a Journal stored at dbPath. Use ":memory:" for tests.
func NewJournal(dbPath string) (*Journal, error) {
	return &Journal{dbPath: dbPath}, nil
}

// Open opens the underlying database and initializes the schema.
func (j *Journal) Open() error {
	if j.db != nil {
		return fmt.Errorf("journal already open")
	}

	sqldb, err := db.NewSqliteDb(db.WithPath(j.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("%w: open journal: %v", ErrStoreUnavailable, err)
	}

	if _, err := sqldb.Exec(journalSchema); err != nil {
		sqldb.Close()
		return fmt.Errorf("%w: init journal schema: %v", ErrStoreCorrupt, err)
	}

	j.db = sqldb
	return nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return fmt.Errorf("journal not open")
	}
	if err := j.db.Close(); err != nil {
		return err
	}
	j.db = nil
	slog.Debug("journal closed", "path", j.dbPath)
	return nil
}

// Get returns the recorded digest, or ok=false when no row exists.
func (j *Journal) Get(ctx context.Context, datastoreID string) (string, bool, error) {
	if j.db == nil {
		return "", false, fmt.Errorf("%w: journal not open", ErrStoreUnavailable)
	}

	var row journalRow
	err := j.db.GetContext(ctx, &row,
		"SELECT datastore_id, hash, updated_at FROM hash_table WHERE datastore_id = ?", datastoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: query %s: %v", ErrStoreUnavailable, datastoreID, err)
	}

	if row.Hash == "" {
		return "", false, fmt.Errorf("%w: row for %s has empty hash", ErrStoreCorrupt, datastoreID)
	}

	return row.Hash, true, nil
}

// Put upserts the digest. The single REPLACE statement keeps the row
// atomic for concurrent readers.
func (j *Journal) Put(ctx context.Context, datastoreID string, digest string) error {
	if j.db == nil {
		return fmt.Errorf("%w: journal not open", ErrStoreUnavailable)
	}

	row := journalRow{
		DatastoreID: datastoreID,
		Hash:        digest,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	query := `INSERT OR REPLACE INTO hash_table (datastore_id, hash, updated_at)
	          VALUES (:datastore_id, :hash, :updated_at)`
	if _, err := j.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStoreUnavailable, datastoreID, err)
	}

	slog.Debug("journal set", "datastore_id", datastoreID, "hash", digest)
	return nil
}

// Count returns the number of tracked resources.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM hash_table"); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

// Delete removes the record for a datastore id. Administrative; normal
// sync never deletes records.
func (j *Journal) Delete(ctx context.Context, datastoreID string) error {
	if _, err := j.db.ExecContext(ctx, "DELETE FROM hash_table WHERE datastore_id = ?", datastoreID); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, datastoreID, err)
	}
	return nil
}
