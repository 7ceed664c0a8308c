package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"romdata/internal/romname"
	"romdata/internal/services"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library <platform-slug>",
		Short: "List stored rom records for a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.close()
			if env.store == nil {
				return services.Wrap(services.ErrConfiguration, "cli", "library", "library store unavailable", nil)
			}

			records, err := env.store.RomsByPlatform(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				type entry struct {
					ID       string   `json:"id"`
					FileName string   `json:"file_name"`
					Name     string   `json:"name"`
					Provider string   `json:"provider,omitempty"`
					Regions  []string `json:"regions,omitempty"`
					Revision string   `json:"revision,omitempty"`
				}
				entries := make([]entry, 0, len(records))
				for _, record := range records {
					tags := romname.ParseTags(record.FileName)
					entries = append(entries, entry{
						ID:       record.ID,
						FileName: record.FileName,
						Name:     record.Rom.Name,
						Provider: record.Rom.Provider,
						Regions:  tags.Regions,
						Revision: tags.Revision,
					})
				}
				return writeJSON(cmd, entries)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored roms for "+args[0])
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				tags := romname.ParseTags(record.FileName)
				revision := tags.Revision
				if revision == "" {
					revision = "-"
				}
				rows = append(rows, []string{
					record.ID,
					truncate(record.FileName, 40),
					truncate(record.Rom.Name, 40),
					strings.Join(tags.Regions, ","),
					revision,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				cmd.OutOrStdout(),
				[]string{"ID", "FILE", "NAME", "REGIONS", "REV"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	return cmd
}
