package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ckanutils/ckansync/internal/hashtable"
)

func init() {
	rootCmd.AddCommand(newHtInitCmd())
}

// htinit provisions the remote hash table schema. Provisioning is an
// explicit administrative step; dsupdate never creates the table itself.
func newHtInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "htinit",
		Short: "Create the hash table schema on the configured resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if cfg.HashTableID == "" {
				return errors.New("htinit requires --hash-table-id or CKAN_HASH_TABLE_ID")
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			cmd.SilenceUsage = true

			store, err := hashtable.NewRemoteStore(client, cfg.HashTableID)
			if err != nil {
				return err
			}
			if err := store.EnsureTable(cmd.Context()); err != nil {
				return err
			}

			slog.Info("hash table ready", "resource_id", cfg.HashTableID)
			return nil
		},
	}
}
