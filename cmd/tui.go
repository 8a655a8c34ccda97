package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [query...]",
	Short: "Search drugs interactively in the terminal",
	Long: `Open a two-pane terminal interface: type a query, browse the grouped
results on the left, and inspect variants on the right. Groups expand one at a
time; manufacturer sections expand independently inside the open group.`,
	Example: `  rxq tui
  rxq tui insulin glargine`,
	Args: cobra.ArbitraryArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	// Piped invocations degrade to the one-shot search path so
	// `rxq tui lipitor | jq` still produces output.
	if flagJSON {
		if query == "" {
			return invalidArgsError(
				"`rxq tui --json` needs a query to print",
				"Run `rxq QUERY --json` for machine-readable output.",
			)
		}
		return runSearch(cmd, args)
	}
	if !isInteractiveSession(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return invalidArgsError(
			"`rxq tui` requires an interactive terminal",
			"Use `rxq QUERY --json` in pipelines.",
		)
	}

	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.close()

	model := newSearchTUIModel(tuiConfig{
		client:       env.client,
		log:          env.log,
		maxResults:   env.cfg.MaxResults,
		initialQuery: query,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func isInteractiveSession(stdin io.Reader, stdout io.Writer) bool {
	inputFile, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(inputFile.Fd())) {
		return false
	}
	return isTTY(stdout)
}
