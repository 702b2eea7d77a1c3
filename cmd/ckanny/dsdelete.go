package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ckanutils/ckansync/internal/ckan"
)

func init() {
	rootCmd.AddCommand(newDsDeleteCmd())
}

func newDsDeleteCmd() *cobra.Command {
	var (
		filters map[string]string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "dsdelete <resource_id>...",
		Short: "Delete datastore tables, or rows matching the given filters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			cmd.SilenceUsage = true

			var failed int
			for _, id := range args {
				err := client.DatastoreDelete(cmd.Context(), &ckan.DatastoreDeleteParams{
					ResourceID: id,
					Filters:    filters,
					Force:      force,
				})
				switch {
				case errors.Is(err, ckan.ErrNotFound):
					slog.Warn("can't delete, table not found in datastore", "resource_id", id)
				case err != nil:
					failed++
					slog.Error("delete table", "resource_id", id, "error", err)
				default:
					slog.Info("table deleted from datastore", "resource_id", id)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d resources failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringToStringVarP(&filters, "filters", "F", nil, "rows to delete, e.g. 'name=fred' (default: whole table)")
	cmd.Flags().BoolVarP(&force, "force", "f", true, "delete even if the resource is read-only")
	return cmd
}
