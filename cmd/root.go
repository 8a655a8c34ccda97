package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/config"
	"github.com/rmharte/rxq/internal/logging"
	"github.com/rmharte/rxq/internal/resilience"
)

var (
	flagAPI      string
	flagMax      int
	flagJSON     bool
	flagDebug    bool
	flagGeneric  bool
	flagBrand    bool
	flagForm     string
	flagSchedule string
)

var rootCmd = &cobra.Command{
	Use:   "rxq [query...]",
	Short: "Search the drug-search service from the terminal",
	Long: "CLI client for the drug-search service. Results are grouped by drug,\n" +
		"manufacturer and variant; use `rxq tui` to browse them interactively.\n\n" +
		"Agent-friendly mode: minor syntax issues are auto-corrected when intent is clear " +
		"(for example: -max 5, max=5, --mxa 5).",
	Example: `  rxq insulin
  rxq "atorvastatin 20mg tablet" --max 10
  rxq search lisinopril --generic --json
  rxq detail 00071015523
  rxq alternatives 00071015523
  rxq tui`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagAPI, "api", "", "Base URL of the drug-search service (overrides config)")
	pf.IntVarP(&flagMax, "max", "n", 0, "Maximum result groups to request, 1-100 (0 = config default)")
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
	pf.BoolVar(&flagDebug, "debug", false, "Verbose logging")

	registerSearchFilterFlags(rootCmd.Flags())
}

// Execute runs the root command.
func Execute() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	resetCLIState()

	normalizedArgs, notes := normalizeCLIArgs(args)
	for _, note := range notes {
		fmt.Fprintf(stderr, "note: %s\n", note)
	}

	if len(normalizedArgs) == 0 {
		if err := printQuickStart(stdout, !isTTY(stdout)); err != nil {
			cliErr := classifyCLIError(err)
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
			return cliErr.ExitCode
		}
		return ExitSuccess
	}

	if shouldAutoJSON(normalizedArgs, isTTY(stdout)) {
		normalizedArgs = insertFlagBeforeTerminator(normalizedArgs, "--json")
	}

	setCommandIO(rootCmd, stdout, stderr)
	rootCmd.SetArgs(normalizedArgs)

	if err := rootCmd.Execute(); err != nil {
		cliErr := classifyCLIError(err)
		if hasJSONPreference(normalizedArgs) {
			if jerr := printCLIErrorJSON(stderr, cliErr); jerr != nil {
				fmt.Fprintln(stderr, formatCLIErrorText(classifyCLIError(jerr)))
				return ExitInternal
			}
		} else {
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
		}
		return cliErr.ExitCode
	}
	return ExitSuccess
}

// insertFlagBeforeTerminator adds a flag token to an arg list, keeping it
// ahead of a `--` boundary so cobra does not read it as a positional.
func insertFlagBeforeTerminator(args []string, flag string) []string {
	for i, arg := range args {
		if arg != "--" {
			continue
		}
		out := make([]string, 0, len(args)+1)
		out = append(out, args[:i]...)
		out = append(out, flag)
		return append(out, args[i:]...)
	}
	return append(args, flag)
}

func setCommandIO(cmd *cobra.Command, stdout, stderr io.Writer) {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	for _, child := range cmd.Commands() {
		setCommandIO(child, stdout, stderr)
	}
}

func resetCLIState() {
	flagAPI = ""
	flagMax = 0
	flagJSON = false
	flagDebug = false
	flagGeneric = false
	flagBrand = false
	flagForm = ""
	flagSchedule = ""
}

func registerSearchFilterFlags(f *pflag.FlagSet) {
	f.BoolVar(&flagGeneric, "generic", false, "Only generic drugs")
	f.BoolVar(&flagBrand, "brand", false, "Only brand drugs")
	f.StringVar(&flagForm, "form", "", "Filter by dosage form (e.g., tablet, solution)")
	f.StringVar(&flagSchedule, "schedule", "", "Filter by DEA schedule (e.g., 2)")
}

// cliEnv bundles the pieces every command needs: effective config, the
// process logger, and a ready API client.
type cliEnv struct {
	cfg    *config.Config
	log    *zap.Logger
	client *api.Client
}

func buildEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, invalidArgsError(
			"invalid configuration: "+err.Error(),
			"Check ~/.config/rxq/config.yaml and RXQ_* environment variables.",
		)
	}

	if flagAPI != "" {
		cfg.APIURL = flagAPI
	}
	if flagMax != 0 {
		cfg.MaxResults = flagMax
	}
	if flagDebug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidArgsError(
			"invalid configuration: "+err.Error(),
			"rxq insulin --max 20",
		)
	}

	logger, err := logging.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	opts := []api.Option{
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, api.WithGuard(resilience.NewGuard(cfg.GuardConfig(), api.IsServiceFailure, logger)))
	}

	return &cliEnv{
		cfg:    cfg,
		log:    logger,
		client: api.NewClient(cfg.APIURL, opts...),
	}, nil
}

func (e *cliEnv) close() {
	// Sync on stderr fails on some platforms; nothing to do about it.
	_ = e.log.Sync()
}
