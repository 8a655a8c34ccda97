package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
	"github.com/rmharte/rxq/internal/results"
	"github.com/rmharte/rxq/internal/session"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Run one search and print the grouped results",
	Long: "Searches the drug-search service and prints the result tree: groups,\n" +
		"manufacturer sections, and variants. The bare `rxq QUERY` form does the\n" +
		"same thing; this command exists so filters read naturally in scripts.",
	Example: `  rxq search insulin
  rxq search metformin --generic --form tablet
  rxq search "insulin glargine" --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	registerSearchFilterFlags(searchCmd.Flags())
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return invalidArgsError(
			"please provide a search query",
			`rxq "atorvastatin 20mg"`,
			"rxq tui",
		)
	}
	if flagGeneric && flagBrand {
		return invalidArgsError(
			"--generic and --brand exclude each other",
			"rxq search metformin --generic",
		)
	}

	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.close()

	req := api.SearchRequest{
		Query:      query,
		MaxResults: env.cfg.MaxResults,
		Filters:    searchFilters(),
	}
	resp, err := env.client.Search(cmd.Context(), req)
	if err != nil {
		return searchError(err)
	}

	groups := results.BuildGroups(resp.Results)
	if len(groups) == 0 {
		return notFoundError(
			session.EmptyMessage(resp, query),
			"Try a broader name or the generic spelling.",
		)
	}

	if flagJSON {
		return display.PrintGroupsJSON(cmd.OutOrStdout(), groups)
	}
	display.PrintGroups(cmd.OutOrStdout(), query, groups)
	display.PrintSearchMeta(cmd.OutOrStdout(), resp)
	return nil
}

// searchFilters maps the filter flags onto the request, nil when no
// filter is active so the field stays off the wire.
func searchFilters() *api.SearchFilters {
	if !flagGeneric && !flagBrand && flagForm == "" && flagSchedule == "" {
		return nil
	}

	f := &api.SearchFilters{
		DosageForm:  flagForm,
		DEASchedule: flagSchedule,
	}
	switch {
	case flagGeneric:
		v := true
		f.IsGeneric = &v
	case flagBrand:
		v := false
		f.IsGeneric = &v
	}
	return f
}
