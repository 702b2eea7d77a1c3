package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ckanutils/ckansync/internal/config"
	"github.com/ckanutils/ckansync/internal/utils"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

// init writes the merged flag/env/file settings back to the config file so
// later runs don't need the flags repeated.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			raw, _ := cmd.Flags().GetString("config")
			path, err := utils.ResolvePath(raw)
			if err != nil {
				return err
			}

			cfg := configFromViper()
			if utils.FileExists(path) {
				existing, err := config.Load(path)
				if err != nil {
					return fmt.Errorf("read existing config: %w", err)
				}
				cfg.Fill(existing)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			slog.Info("config written", "path", path)
			return nil
		},
	}
}
