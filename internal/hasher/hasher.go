// Package hasher computes content digests for fetched resources.
//
// Digests are hex-encoded SHA-1, matching the values the hash table has
// historically stored. Content is read in bounded chunks so memory use is
// independent of resource size.
package hasher

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the default read size in bytes (1 MiB).
const DefaultChunkSize = 1 << 20

// Hasher computes streaming content digests.
type Hasher struct {
	chunkSize int
}

// New creates a Hasher. chunkSize <= 0 selects DefaultChunkSize.
func New(chunkSize int) *Hasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Hasher{chunkSize: chunkSize}
}

// Sum reads r to EOF and returns the hex digest of its content.
// A mid-read failure returns an error and no digest.
func (h *Hasher) Sum(r io.Reader) (string, error) {
	digest := sha1.New()
	buf := make([]byte, h.chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			// hash.Hash writes never fail
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hasher: read: %w", err)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// SumFile returns the hex digest of the file's content.
func (h *Hasher) SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: open %s: %w", path, err)
	}
	defer f.Close()

	return h.Sum(f)
}
