package cmd

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/config"
	"github.com/masmgr/clearpoll/internal/changelog"
	"github.com/masmgr/clearpoll/internal/output"
)

func TestGetOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  output.OutputFormat
	}{
		{input: "json", want: output.FormatJSON},
		{input: "csv", want: output.FormatCSV},
		{input: "markdown", want: output.FormatMarkdown},
		{input: "md", want: output.FormatMarkdown},
		{input: "ci", want: output.FormatCI},
		{input: "ndjson", want: output.FormatCI},
		{input: "unknown", want: output.FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := getOutputFormat(tt.input); got != tt.want {
				t.Fatalf("getOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  log.Level
	}{
		{level: "debug", want: log.DebugLevel},
		{level: "WARN", want: log.WarnLevel},
		{level: "error", want: log.ErrorLevel},
		{level: "info", want: log.InfoLevel},
		{level: "", want: log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(config.LoggingConfig{Level: tt.level, Format: "json"}, io.Discard)
			if got := logger.GetLevel(); got != tt.want {
				t.Fatalf("newLogger(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestResolveOrder(t *testing.T) {
	cfg := config.DefaultConfig()

	got, err := resolveOrder(cfg, "")
	if err != nil || got != changelog.Descending {
		t.Fatalf("resolveOrder(default) = %q, %v, want descending", got, err)
	}
	got, err = resolveOrder(cfg, "increasing")
	if err != nil || got != changelog.Ascending {
		t.Fatalf("resolveOrder(increasing) = %q, %v, want ascending", got, err)
	}
	cfg.ChangeLog.Order = "bogus"
	if _, err := resolveOrder(cfg, ""); err == nil {
		t.Fatal("expected error for bad configured order")
	}
}

func TestAppCommands(t *testing.T) {
	app := App()
	want := []string{"poll", "changelog", "history", "validate", "state"}
	if len(app.Commands) != len(want) {
		t.Fatalf("len(Commands) = %d, want %d", len(app.Commands), len(want))
	}
	for i, name := range want {
		if app.Commands[i].Name != name {
			t.Errorf("Commands[%d] = %q, want %q", i, app.Commands[i].Name, name)
		}
	}
}

func newTestCLIContext(t *testing.T, flags []cli.Flag, args []string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cli.NewContext(App(), set, nil)
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.txt")
	if err := os.WriteFile(rulesFile, []byte("/vob/x\r\n\n  /vob/y  \n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfgFile := filepath.Join(dir, "clearpoll.yaml")
	if err := os.WriteFile(cfgFile, []byte("loadRules:\n  - /vob/cfg\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	flags := append([]cli.Flag{&cli.StringFlag{Name: "config"}, &cli.StringFlag{Name: "log-level"}, &cli.StringFlag{Name: "log-format"}}, pollFlags()...)

	t.Run("ConfigFile", func(t *testing.T) {
		c := newTestCLIContext(t, flags, []string{"--config", cfgFile})
		cfg, err := loadConfig(c)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if len(cfg.LoadRules) != 1 || cfg.LoadRules[0] != "/vob/cfg" {
			t.Errorf("LoadRules = %v", cfg.LoadRules)
		}
	})

	t.Run("Flags", func(t *testing.T) {
		c := newTestCLIContext(t, flags, []string{
			"--config", cfgFile,
			"--view", "dev_view",
			"--charset", "windows-1252",
			"--load-rules-file", rulesFile,
			"--state", filepath.Join(dir, "s.json"),
			"--quiet-period", "0",
			"--log-level", "debug",
		})
		cfg, err := loadConfig(c)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.ClearTool.ViewName != "dev_view" {
			t.Errorf("ViewName = %q", cfg.ClearTool.ViewName)
		}
		if cfg.ClearTool.Charset != "windows-1252" {
			t.Errorf("Charset = %q", cfg.ClearTool.Charset)
		}
		if len(cfg.LoadRules) != 2 || cfg.LoadRules[0] != "/vob/x" || cfg.LoadRules[1] != "/vob/y" {
			t.Errorf("LoadRules = %v", cfg.LoadRules)
		}
		if cfg.Polling.QuietPeriodMinutes != 0 {
			t.Errorf("QuietPeriodMinutes = %d, want 0", cfg.Polling.QuietPeriodMinutes)
		}
		if cfg.State.Path != filepath.Join(dir, "s.json") || cfg.Logging.Level != "debug" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("UnknownCharset", func(t *testing.T) {
		c := newTestCLIContext(t, flags, []string{"--config", cfgFile, "--charset", "klingon"})
		if _, err := loadConfig(c); err == nil {
			t.Fatal("expected error for unknown charset")
		}
	})

	t.Run("InvalidQuietPeriod", func(t *testing.T) {
		c := newTestCLIContext(t, flags, []string{"--config", cfgFile, "--quiet-period", "-5"})
		if _, err := loadConfig(c); err == nil {
			t.Fatal("expected error for negative quiet period")
		}
	})
}
