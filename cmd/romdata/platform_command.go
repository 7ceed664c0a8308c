package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlatformCommand(ctx *commandContext) *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "platform <slug>",
		Short: "Resolve a platform slug against the configured providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment(cmd.Context(), !noSave)
			if err != nil {
				return err
			}
			defer env.close()

			platform, ids, err := env.resolver.Platform(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					Name   string `json:"name"`
					Slug   string `json:"slug"`
					IGDBID int64  `json:"igdb_id,omitempty"`
					MobyID int64  `json:"moby_id,omitempty"`
				}{platform.Name, platform.Slug, ids.IGDB, ids.Moby})
			}

			formatID := func(id int64) string {
				if id == 0 {
					return "-"
				}
				return strconv.FormatInt(id, 10)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				cmd.OutOrStdout(),
				[]string{"NAME", "SLUG", "IGDB", "MOBYGAMES"},
				[][]string{{platform.Name, platform.Slug, formatID(ids.IGDB), formatID(ids.Moby)}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip writing the result to the library database")
	return cmd
}
