package sync

import (
	"fmt"
	"path/filepath"
	"strings"
	gosync "sync"

	"github.com/gofrs/flock"

	"github.com/ckanutils/ckansync/internal/utils"
)

// keyedMutex serializes sync invocations per datastore id within this
// process. Entries are never removed; the set of ids per run is small.
type keyedMutex struct {
	mu    gosync.Mutex
	locks map[string]*gosync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*gosync.Mutex)}
}

func (k *keyedMutex) Lock(id string) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &gosync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()
	m.Lock()
}

func (k *keyedMutex) Unlock(id string) {
	k.mu.Lock()
	m, ok := k.locks[id]
	k.mu.Unlock()
	if ok {
		m.Unlock()
	}
}

// fileLock guards a datastore id across processes (cron job vs manual run)
// with a lock file per id under the configured lock directory.
func fileLock(lockDir, datastoreID string) (*flock.Flock, error) {
	if err := utils.EnsureDir(lockDir); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", lockDir, err)
	}

	name := lockFileName(datastoreID)
	fl := flock.New(filepath.Join(lockDir, name))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fl.Path(), err)
	}
	return fl, nil
}

// lockFileName flattens a datastore id into a safe file name.
func lockFileName(datastoreID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, datastoreID)
	return safe + ".lock"
}
