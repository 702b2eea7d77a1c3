package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ckanutils/ckansync/internal/hashtable"
	"github.com/ckanutils/ckansync/internal/loader"
	"github.com/ckanutils/ckansync/internal/sync"
	"github.com/ckanutils/ckansync/internal/utils"
)

const maxSyncConcurrency = 4

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

func init() {
	rootCmd.AddCommand(newDsUpdateCmd())
}

func newDsUpdateCmd() *cobra.Command {
	var (
		chunkRows  int
		chunkBytes int
		primaryKey string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "dsupdate <resource_id>...",
		Short: "Update datastore tables, skipping resources whose content hasn't changed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if chunkRows > 0 {
				cfg.ChunkRows = chunkRows
			}
			if chunkBytes > 0 {
				cfg.ChunkBytes = chunkBytes
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			// remote hash table when configured, local journal otherwise
			var store hashtable.Store
			if cfg.HashTableID != "" {
				store, err = hashtable.NewRemoteStore(client, cfg.HashTableID)
				if err != nil {
					return err
				}
			} else {
				slog.Debug("no hash table resource configured, using local journal", "path", cfg.JournalPath())
				journal, err := hashtable.NewJournal(cfg.JournalPath())
				if err != nil {
					return err
				}
				if err := journal.Open(); err != nil {
					return err
				}
				defer journal.Close()
				store = journal
			}

			var pk []string
			if primaryKey != "" {
				pk = strings.Split(primaryKey, ",")
			}

			up := loader.New(client, loader.Options{
				ChunkRows:  cfg.ChunkRows,
				PrimaryKey: pk,
				Force:      true,
			})

			syncer := sync.New(client, up, store, sync.Options{
				ChunkSize: cfg.ChunkBytes,
				Force:     force,
				LockDir:   cfg.LockDir(),
			})

			if err := utils.EnsureDir(cfg.DataDir); err != nil {
				return err
			}

			ctx := cmd.Context()
			eg, egCtx := errgroup.WithContext(ctx)
			eg.SetLimit(maxSyncConcurrency)

			results := make([]*sync.Result, len(args))
			errs := make([]error, len(args))

			for i, id := range args {
				eg.Go(func() error {
					results[i], errs[i] = syncer.Sync(egCtx, id)
					return nil
				})
			}
			eg.Wait()

			var failed int
			for i, id := range args {
				switch {
				case errs[i] != nil:
					failed++
					var syncErr *sync.Error
					if errors.As(errs[i], &syncErr) && syncErr.RemoteInconsistent() {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s: uploaded but hash not recorded: %v\n", red("INCONSISTENT"), id, errs[i])
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", red("FAILED"), id, errs[i])
					}
				case results[i].Action == sync.ActionSkip:
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: no new data found\n", yellow("SKIPPED"), id)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: datastore updated\n", green("UPDATED"), id)
				}
			}

			if failed > 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("%d of %d resources failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().IntVarP(&chunkRows, "chunksize-rows", "C", 0, "number of rows to write at a time")
	cmd.Flags().IntVarP(&chunkBytes, "chunksize-bytes", "B", 0, "number of bytes to read/hash at a time")
	cmd.Flags().StringVarP(&primaryKey, "primary-key", "p", "", "unique field(s), e.g. 'field1,field2'")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "update resource even if it hasn't changed")
	return cmd
}
