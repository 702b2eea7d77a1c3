// Package sync implements conditional datastore synchronization: fetch a
// resource, hash its content, compare against the recorded digest and only
// upload when the content changed. The recorded digest always tracks the
// last successful upload, never a failed or skipped attempt.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ckanutils/ckansync/internal/hasher"
	"github.com/ckanutils/ckansync/internal/hashtable"
)

const (
	defaultPutRetries   = 3
	defaultPutRetryWait = 2 * time.Second
)

// Options configures a Syncer.
type Options struct {
	// ChunkSize for hashing reads; 0 selects the hasher default.
	ChunkSize int

	// Force uploads without consulting the hash table. The new digest is
	// still recorded after a successful upload.
	Force bool

	// LockDir enables cross-process locking per datastore id. Empty means
	// in-process locking only.
	LockDir string

	// PutRetries and PutRetryWait bound the record-step retry loop when
	// the hash table is temporarily unavailable.
	PutRetries   int
	PutRetryWait time.Duration
}

// Syncer orchestrates fetch, hash, decide, upload and record for single
// datastore resources. Invocations for different ids may run concurrently;
// invocations for the same id are serialized.
type Syncer struct {
	fetcher  Fetcher
	uploader Uploader
	store    hashtable.Store
	hasher   *hasher.Hasher

	locks        *keyedMutex
	lockDir      string
	force        bool
	putRetries   int
	putRetryWait time.Duration
}

// New creates a Syncer from its collaborators.
func New(fetcher Fetcher, uploader Uploader, store hashtable.Store, opts Options) *Syncer {
	if opts.PutRetries <= 0 {
		opts.PutRetries = defaultPutRetries
	}
	if opts.PutRetryWait <= 0 {
		opts.PutRetryWait = defaultPutRetryWait
	}

	return &Syncer{
		fetcher:      fetcher,
		uploader:     uploader,
		store:        store,
		hasher:       hasher.New(opts.ChunkSize),
		locks:        newKeyedMutex(),
		lockDir:      opts.LockDir,
		force:        opts.Force,
		putRetries:   opts.PutRetries,
		putRetryWait: opts.PutRetryWait,
	}
}

// Sync runs one fetch→hash→decide→upload→record cycle for datastoreID.
// On failure the returned *Error names the failing step; the Result is
// still populated with whatever progress was made.
func (s *Syncer) Sync(ctx context.Context, datastoreID string) (*Result, error) {
	s.locks.Lock(datastoreID)
	defer s.locks.Unlock(datastoreID)

	if s.lockDir != "" {
		fl, err := fileLock(s.lockDir, datastoreID)
		if err != nil {
			return &Result{DatastoreID: datastoreID, Step: StepLocking},
				&Error{DatastoreID: datastoreID, Step: StepLocking, Err: err}
		}
		defer fl.Unlock()
	}

	return s.run(ctx, datastoreID)
}

func (s *Syncer) run(ctx context.Context, datastoreID string) (*Result, error) {
	result := &Result{DatastoreID: datastoreID}

	fail := func(step Step, err error) (*Result, error) {
		result.Step = step
		return result, &Error{DatastoreID: datastoreID, Step: step, Err: err}
	}

	// Fetching
	fetched, err := s.fetcher.FetchResource(ctx, datastoreID)
	if err != nil {
		return fail(StepFetching, err)
	}
	defer fetched.Discard()

	// Hashing
	digest, err := s.hasher.SumFile(fetched.Path)
	if err != nil {
		return fail(StepHashing, err)
	}
	result.Digest = digest

	// Deciding
	action := ActionUpload
	if s.force {
		slog.Debug("sync forced, skipping hash check", "datastore_id", datastoreID)
	} else {
		stored, ok, err := s.store.Get(ctx, datastoreID)
		if err != nil {
			return fail(StepDeciding, err)
		}
		action = Decide(digest, stored, ok)
	}
	result.Action = action

	if action == ActionSkip {
		slog.Info("sync", "op", "SKIP", "reason", "contents unchanged", "datastore_id", datastoreID, "hash", digest)
		result.Step = StepDone
		return result, nil
	}

	// Uploading. A failed upload must not touch the hash table.
	if err := s.uploader.Upload(ctx, datastoreID, fetched); err != nil {
		return fail(StepUploading, err)
	}
	result.Uploaded = true

	// Recording. Retry transient store failures with the same digest;
	// corrupt-store errors surface immediately even though the upload
	// already succeeded.
	if err := s.recordDigest(ctx, datastoreID, digest); err != nil {
		return fail(StepRecording, err)
	}

	slog.Info("sync", "op", "UPLOAD", "datastore_id", datastoreID, "hash", digest)
	result.Step = StepDone
	return result, nil
}

func (s *Syncer) recordDigest(ctx context.Context, datastoreID, digest string) error {
	var err error
	for attempt := 0; attempt <= s.putRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("hash table put retry", "datastore_id", datastoreID, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.putRetryWait):
			}
		}

		err = s.store.Put(ctx, datastoreID, digest)
		if err == nil {
			return nil
		}
		if !errors.Is(err, hashtable.ErrStoreUnavailable) {
			return err
		}
	}
	return err
}
