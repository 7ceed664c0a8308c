package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the filename lookup indexes",
	}

	var force bool
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download the lookup indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.indexes.RefreshAll(cmd.Context(), force); err != nil {
				return fmt.Errorf("refresh indexes: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexes refreshed under %s\n", env.config.Indexes.Dir)
			return nil
		},
	}
	refreshCmd.Flags().BoolVar(&force, "force", false, "Re-download even when local files are fresh")

	indexCmd.AddCommand(refreshCmd)
	return indexCmd
}
