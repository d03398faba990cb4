package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/config"
	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "clearpoll",
		Usage:   "Incremental ClearCase history poller",
		Version: "1.0.0",
		Commands: []*cli.Command{
			PollCmd(),
			ChangelogCmd(),
			HistoryCmd(),
			ValidateCmd(),
			StateCmd(),
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
			},
		}, pollFlags()...),
		Action: legacyAction,
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "view",
			Usage: "ClearCase view to run queries in",
		},
		&cli.StringFlag{
			Name:  "charset",
			Usage: "Character set of cleartool output (e.g. windows-1252), default UTF-8",
		},
		&cli.StringSliceFlag{
			Name:    "load-rule",
			Aliases: []string{"l"},
			Usage:   "Load rule to watch (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:  "load-rules-file",
			Usage: "File with one load rule per line",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:  "state",
			Usage: "Path to the revision state file",
		},
	}
}

// Output flags shared by reporting commands
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of entries to show (0 for all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch s {
	case "json":
		return output.FormatJSON
	case "csv":
		return output.FormatCSV
	case "markdown", "md":
		return output.FormatMarkdown
	case "ci", "ndjson":
		return output.FormatCI
	default:
		return output.FormatConsole
	}
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if view := c.String("view"); view != "" {
		cfg.ClearTool.ViewName = view
	}
	if charset := c.String("charset"); charset != "" {
		cfg.ClearTool.Charset = charset
	}
	if rules := c.StringSlice("load-rule"); len(rules) > 0 {
		cfg.LoadRules = rules
	}
	if path := c.String("load-rules-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read load rules: %w", err)
		}
		cfg.LoadRules = loadrule.Split(string(data))
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}
	if statePath := c.String("state"); statePath != "" {
		cfg.State.Path = statePath
	}
	if c.IsSet("quiet-period") {
		cfg.Polling.QuietPeriodMinutes = c.Int("quiet-period")
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format := c.String("log-format"); format != "" {
		cfg.Logging.Format = format
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger from the logging config.
func newLogger(cfg config.LoggingConfig, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(log.JSONFormatter)
	} else {
		logger.SetFormatter(log.TextFormatter)
	}

	switch strings.ToLower(cfg.Level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// legacyAction handles the default command behavior.
// Without a subcommand the app polls, which is what a build trigger runs.
func legacyAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.ShowAppHelp(c)
	}
	return pollAction(c)
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "Error: %v\n", msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
