package sync

import (
	"context"
	"fmt"

	"github.com/ckanutils/ckansync/internal/ckan"
)

// Step identifies a stage of the sync state machine.
type Step string

const (
	StepLocking   Step = "locking"
	StepFetching  Step = "fetching"
	StepHashing   Step = "hashing"
	StepDeciding  Step = "deciding"
	StepUploading Step = "uploading"
	StepRecording Step = "recording"
	StepDone      Step = "done"
)

// Fetcher retrieves a resource's content to a local file.
// *ckan.Client satisfies this via FetchResource.
type Fetcher interface {
	FetchResource(ctx context.Context, resourceID string) (*ckan.FetchedResource, error)
}

// Uploader pushes fetched content into the target datastore. It must only
// return nil on a confirmed successful upload.
type Uploader interface {
	Upload(ctx context.Context, datastoreID string, fetched *ckan.FetchedResource) error
}

// Result describes one completed or failed sync invocation.
type Result struct {
	DatastoreID string
	Step        Step   // StepDone on success, the failing step otherwise
	Action      Action // upload or skip; empty if we never got to decide
	Digest      string // digest of the fetched content, if hashing completed
	Uploaded    bool   // the upload itself succeeded (true even if recording failed)
}

// Error is a structured sync failure identifying the resource and the step
// that failed, so callers can tell "nothing changed" failures from ones
// where remote state may be inconsistent.
type Error struct {
	DatastoreID string
	Step        Step
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sync %s: %s: %v", e.DatastoreID, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RemoteInconsistent reports whether the failure happened after a
// successful upload, meaning the stored hash no longer matches remote
// content and a blind retry would re-upload.
func (e *Error) RemoteInconsistent() bool {
	return e.Step == StepRecording
}
