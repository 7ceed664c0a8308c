package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var platformSlug string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "identify <file-name>",
		Short: "Resolve a rom filename to canonical metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.buildEnvironment(cmd.Context(), !noSave)
			if err != nil {
				return err
			}
			defer env.close()

			rom, err := env.resolver.Identify(cmd.Context(), args[0], platformSlug)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, rom)
			}

			out := cmd.OutOrStdout()
			if !rom.Matched() {
				fmt.Fprintf(out, "No match for %s\n", args[0])
				return nil
			}
			rows := [][]string{
				{"Name", rom.Name},
				{"Provider", rom.Provider},
				{"Provider ID", strconv.FormatInt(*rom.ProviderID, 10)},
				{"Slug", rom.Slug},
				{"Summary", truncate(rom.Summary, 100)},
				{"Cover", rom.CoverURL},
				{"Screenshots", strconv.Itoa(len(rom.ScreenshotURLs))},
			}
			fmt.Fprintln(out, renderTable(
				out,
				[]string{"FIELD", "VALUE"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&platformSlug, "platform", "p", "", "Platform slug the rom belongs to")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip writing the result to the library database")
	cmd.MarkFlagRequired("platform")
	return cmd
}
