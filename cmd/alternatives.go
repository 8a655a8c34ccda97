package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
)

var alternativesCmd = &cobra.Command{
	Use:     "alternatives NDC",
	Aliases: []string{"alts"},
	Short:   "List substitutable drugs for one NDC",
	Long:    "Lists same-GCN alternatives for a drug, split into generic and brand options.",
	Example: `  rxq alternatives 00071015523
  rxq alts 00071-0155-23 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAlternatives,
}

func init() {
	rootCmd.AddCommand(alternativesCmd)
}

func runAlternatives(cmd *cobra.Command, args []string) error {
	if _, err := api.NormalizeNDC(args[0]); err != nil {
		return invalidArgsError(
			err.Error(),
			"rxq alternatives 00071015523",
			"NDCs are 11 digits; dashes are fine.",
		)
	}

	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.close()

	resp, err := env.client.FetchAlternatives(cmd.Context(), args[0])
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return notFoundError(
				apiErr.Error(),
				"Find NDCs with `rxq <drug name>` first.",
			)
		}
		return upstreamError("fetching alternatives", err)
	}

	if resp.Alternatives == nil || resp.Alternatives.TotalCount == 0 {
		return notFoundError(
			fmt.Sprintf("no alternatives found for NDC %s", args[0]),
			"The drug may be single-source; try `rxq detail` for its record.",
		)
	}

	if flagJSON {
		return display.PrintAlternativesJSON(cmd.OutOrStdout(), resp)
	}
	display.PrintAlternatives(cmd.OutOrStdout(), resp)
	return nil
}
