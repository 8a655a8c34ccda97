package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
)

var detailCmd = &cobra.Command{
	Use:   "detail NDC",
	Short: "Show the full record for one NDC",
	Long:  "Looks up a single drug by its 11-digit NDC. Dashes are accepted and stripped.",
	Example: `  rxq detail 00071015523
  rxq detail 00002-8215-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDetail,
}

func init() {
	rootCmd.AddCommand(detailCmd)
}

func runDetail(cmd *cobra.Command, args []string) error {
	if _, err := api.NormalizeNDC(args[0]); err != nil {
		return invalidArgsError(
			err.Error(),
			"rxq detail 00071015523",
			"NDCs are 11 digits; dashes are fine.",
		)
	}

	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.close()

	resp, err := env.client.FetchDrugDetail(cmd.Context(), args[0])
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return notFoundError(
				apiErr.Error(),
				"Find NDCs with `rxq <drug name>` first.",
			)
		}
		return upstreamError("fetching drug detail", err)
	}

	if flagJSON {
		return display.PrintDrugDetailJSON(cmd.OutOrStdout(), resp)
	}
	display.PrintDrugDetail(cmd.OutOrStdout(), resp)
	return nil
}
