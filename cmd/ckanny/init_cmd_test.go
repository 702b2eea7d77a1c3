package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckanutils/ckansync/internal/config"
)

func newInitRoot(t *testing.T) *cobra.Command {
	t.Helper()
	t.Cleanup(viper.Reset)

	root := &cobra.Command{Use: "ckanny"}
	root.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "")
	root.AddCommand(newInitCmd())
	return root
}

func TestInitCommand_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	viper.Set("remote", "https://demo.ckan.org")
	viper.Set("hash_table_id", "hash-res")

	root := newInitRoot(t)
	root.SetArgs([]string{"init", "-c", path})
	require.NoError(t, root.Execute())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://demo.ckan.org", loaded.Remote)
	assert.Equal(t, "hash-res", loaded.HashTableID)
}

func TestInitCommand_PreservesStoredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, (&config.Config{
		Remote: "https://old.ckan.org",
		APIKey: "stored-key",
	}).Save(path))

	viper.Set("remote", "https://new.ckan.org")

	root := newInitRoot(t)
	root.SetArgs([]string{"init", "-c", path})
	require.NoError(t, root.Execute())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://new.ckan.org", loaded.Remote)
	assert.Equal(t, "stored-key", loaded.APIKey, "values this run didn't set survive")
}

func TestInitCommand_RequiresRemote(t *testing.T) {
	root := newInitRoot(t)
	root.SetArgs([]string{"init", "-c", filepath.Join(t.TempDir(), "config.json")})
	assert.ErrorIs(t, root.Execute(), config.ErrNoRemote)
}
