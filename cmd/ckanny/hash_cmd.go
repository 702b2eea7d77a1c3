package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckanutils/ckansync/internal/hasher"
)

func init() {
	rootCmd.AddCommand(newHashCmd())
}

func newHashCmd() *cobra.Command {
	var chunkBytes int

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the content digest of a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			digest, err := hasher.New(chunkBytes).SumFile(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), digest)
			return err
		},
	}

	cmd.Flags().IntVarP(&chunkBytes, "chunksize-bytes", "B", 0, "number of bytes to read at a time")
	return cmd
}
