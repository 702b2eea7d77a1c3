package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := &Config{
		Remote:      "https://demo.ckan.org",
		APIKey:      "secret",
		HashTableID: "hash-res",
		ChunkRows:   500,
		DataDir:     "/var/lib/ckanny",
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Remote, loaded.Remote)
	assert.Equal(t, cfg.APIKey, loaded.APIKey)
	assert.Equal(t, cfg.HashTableID, loaded.HashTableID)
	assert.Equal(t, cfg.ChunkRows, loaded.ChunkRows)
	assert.Equal(t, path, loaded.Path)
}

func TestConfig_Fill(t *testing.T) {
	cfg := &Config{Remote: "https://new.ckan.org"}
	cfg.Fill(&Config{
		Remote:      "https://old.ckan.org",
		APIKey:      "stored-key",
		HashTableID: "hash-res",
		ChunkRows:   250,
	})

	assert.Equal(t, "https://new.ckan.org", cfg.Remote, "set fields win")
	assert.Equal(t, "stored-key", cfg.APIKey)
	assert.Equal(t, "hash-res", cfg.HashTableID)
	assert.Equal(t, 250, cfg.ChunkRows)
}

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrNoRemote)
	assert.NoError(t, (&Config{Remote: "https://demo.ckan.org"}).Validate())
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "hash_table.db"), cfg.JournalPath())
	assert.Equal(t, filepath.Join("/data", "locks"), cfg.LockDir())
}

func TestLoad_MissingDataDirDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, (&Config{Remote: "https://demo.ckan.org"}).Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir, loaded.DataDir)
}
