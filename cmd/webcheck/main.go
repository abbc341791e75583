package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"webcheck/internal/config"
)

var version = "0.3.0-dev"

// errFindings makes check exit with status 1 without printing an error.
var errFindings = errors.New("error findings reported")

func main() {
	rootCmd := &cobra.Command{
		Use:   "webcheck",
		Short: "Check web projects against HTML, outline and JavaScript conventions",
		Long: `webcheck reviews the HTML and JavaScript files of a web project.

It reports forbidden and non-semantic markup, document outlines whose
headings do not match their sectioning elements, var and global
declarations, DOM level 0 event handlers and variables used without a
declaration. Runs are recorded in a SQLite history database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("db", "", "History database (default $WEBCHECK_HOME/webcheck.db)")

	checkCmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Check a project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().StringP("format", "f", "", "Output format: text|json|markdown|html")
	checkCmd.Flags().StringP("out", "o", "", "Write the report to a file instead of stdout")
	checkCmd.Flags().BoolP("extended", "x", false, "Include the informational checks (level full)")
	checkCmd.Flags().Bool("html", true, "Run the HTML convention checks")
	checkCmd.Flags().Bool("outline", true, "Run the document outline check")
	checkCmd.Flags().Bool("js", true, "Run the JavaScript checks")
	checkCmd.Flags().IntP("workers", "w", 0, "Files checked in parallel (default: number of CPUs)")
	checkCmd.Flags().Bool("no-save", false, "Do not record the run in the history database")
	checkCmd.Flags().Bool("bulk", false, "Check every subdirectory of dir as a separate project; --out then names a file inside each project")

	outlineCmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print and validate the outline of an HTML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runOutline,
	}
	outlineCmd.Flags().Bool("json", false, "Print the skeleton and errors as JSON")

	scopesCmd := &cobra.Command{
		Use:   "scopes <file>",
		Short: "Print the scope tree of a script",
		Args:  cobra.ExactArgs(1),
		RunE:  runScopes,
	}
	scopesCmd.Flags().Bool("dump", false, "Pretty-print the raw scope tree")

	undeclaredCmd := &cobra.Command{
		Use:   "undeclared <file>",
		Short: "List variables of a script used without a declaration",
		Args:  cobra.ExactArgs(1),
		RunE:  runUndeclared,
	}
	undeclaredCmd.Flags().StringSlice("ignore", nil, "Globals never reported (default from configuration)")

	historyCmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "List recorded runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs")
	historyCmd.Flags().Bool("all", false, "List runs of every project")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the webcheck tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the run history over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runAPI,
	}
	apiCmd.Flags().String("addr", "", "Listen address (default :8095)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webcheck %s\n", version)
		},
	}

	rootCmd.AddCommand(
		checkCmd,
		outlineCmd,
		scopesCmd,
		undeclaredCmd,
		historyCmd,
		serveCmd,
		apiCmd,
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "webcheck: %v\n", err)
		}
		os.Exit(1)
	}
}

// newLogger writes to stderr so that stdout stays free for reports and the
// MCP protocol.
func newLogger(cmd *cobra.Command) *slog.Logger {
	asJSON, _ := cmd.Flags().GetBool("log-json")
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// loadConfig loads the configuration of dir and applies the global flags.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, fmt.Errorf("failed to load configuration: %w", err)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}
	return cfg, nil
}
