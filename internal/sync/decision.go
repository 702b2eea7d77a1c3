package sync

// Action is the outcome of comparing a fresh digest with the stored one.
type Action string

const (
	// ActionUpload means the content changed (or was never recorded) and
	// must be pushed to the datastore.
	ActionUpload Action = "upload"

	// ActionSkip means the stored digest matches the fresh one.
	ActionSkip Action = "skip"
)

// Decide compares a freshly computed digest against the stored one.
// stored is false when the hash table has no record for the resource, in
// which case the content always uploads. Pure; no I/O.
func Decide(newDigest, storedDigest string, stored bool) Action {
	if !stored || newDigest != storedDigest {
		return ActionUpload
	}
	return ActionSkip
}
