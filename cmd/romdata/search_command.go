package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"romdata/internal/metadata"
	"romdata/internal/services"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var platformSlug string
	var byFlag string
	var romID string

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search game metadata across the configured providers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.close()

			query := metadata.Query{
				SearchBy: metadata.SearchBy(strings.ToLower(strings.TrimSpace(byFlag))),
			}
			if len(args) > 0 {
				query.Term = args[0]
			}
			if id := strings.TrimSpace(romID); id != "" {
				if env.store == nil {
					return services.Wrap(services.ErrConfiguration, "cli", "search", "library store unavailable", nil)
				}
				record, err := env.store.RomByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				query.FileName = record.FileName
				if strings.TrimSpace(platformSlug) == "" {
					platformSlug = record.PlatformSlug
				}
			} else if strings.TrimSpace(query.Term) == "" {
				return services.Wrap(services.ErrValidation, "cli", "search", "a term or --rom is required", nil)
			}
			if slug := strings.TrimSpace(platformSlug); slug != "" {
				_, ids, err := env.resolver.Platform(cmd.Context(), slug)
				if err != nil {
					return err
				}
				query.Platform = ids
			}

			roms, err := env.resolver.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, roms)
			}
			if len(roms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}

			rows := make([][]string, 0, len(roms))
			for _, rom := range roms {
				id := ""
				if rom.ProviderID != nil {
					id = strconv.FormatInt(*rom.ProviderID, 10)
				}
				rows = append(rows, []string{
					id,
					rom.Provider,
					rom.Name,
					truncate(rom.Summary, 60),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				cmd.OutOrStdout(),
				[]string{"ID", "PROVIDER", "NAME", "SUMMARY"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&platformSlug, "platform", "p", "", "Restrict results to a platform slug")
	cmd.Flags().StringVar(&byFlag, "by", "name", "Search mode: name or id")
	cmd.Flags().StringVar(&romID, "rom", "", "Search on behalf of a stored library rom by its id")
	return cmd
}
