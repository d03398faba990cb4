package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"gopkg.in/yaml.v3"

	"github.com/masmgr/clearpoll/internal/cleartool"
)

// Config is the root configuration structure.
type Config struct {
	ClearTool ClearToolConfig `json:"cleartool" yaml:"cleartool"`
	LoadRules []string        `json:"loadRules" yaml:"loadRules"`
	Polling   PollingConfig   `json:"polling" yaml:"polling"`
	ChangeLog ChangeLogConfig `json:"changelog" yaml:"changelog"`
	State     StateConfig     `json:"state" yaml:"state"`
	Filters   FilterConfig    `json:"filters" yaml:"filters"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// ClearToolConfig holds how cleartool is invoked.
type ClearToolConfig struct {
	Executable            string `json:"executable" yaml:"executable"`                       // Default: "cleartool"
	ViewName              string `json:"viewName" yaml:"viewName"`                           // Empty runs queries outside a view
	WorkDir               string `json:"workDir" yaml:"workDir"`                             // Working directory for cleartool
	TimeZone              string `json:"timeZone" yaml:"timeZone"`                           // IANA name, empty for local time
	Charset               string `json:"charset" yaml:"charset"`                             // Output charset, empty for UTF-8
	LastNumEvents         int    `json:"lastNumEvents" yaml:"lastNumEvents"`                 // Default: 10
	CommandTimeoutSeconds int    `json:"commandTimeoutSeconds" yaml:"commandTimeoutSeconds"` // 0 disables the timeout
	Concurrency           int    `json:"concurrency" yaml:"concurrency"`                     // Default: 1
}

// PollingConfig holds polling decision options.
type PollingConfig struct {
	QuietPeriodMinutes int `json:"quietPeriodMinutes" yaml:"quietPeriodMinutes"` // Default: 10
}

// ChangeLogConfig holds changelog output options.
type ChangeLogConfig struct {
	Path  string `json:"path" yaml:"path"`   // Default: "changelog.xml"
	Order string `json:"order" yaml:"order"` // "ascending" or "descending" (default)
}

// StateConfig holds where the last RevisionState is kept.
type StateConfig struct {
	Path string `json:"path" yaml:"path"` // Default: ".clearpoll-state.json"
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// LoggingConfig holds diagnostic logging options.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		ClearTool: ClearToolConfig{
			Executable:    "cleartool",
			LastNumEvents: 10,
			Concurrency:   1,
		},
		LoadRules: []string{},
		Polling: PollingConfig{
			QuietPeriodMinutes: 10,
		},
		ChangeLog: ChangeLogConfig{
			Path:  "changelog.xml",
			Order: "descending",
		},
		State: StateConfig{
			Path: ".clearpoll-state.json",
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Location resolves the configured time zone. Empty means local time.
func (c ClearToolConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("cleartool.timeZone: %w", err)
	}
	return loc, nil
}

// Encoding resolves the configured output charset. Empty means UTF-8 and
// yields nil.
func (c ClearToolConfig) Encoding() (encoding.Encoding, error) {
	enc, err := cleartool.LookupCharset(c.Charset)
	if err != nil {
		return nil, fmt.Errorf("cleartool.charset: %w", err)
	}
	return enc, nil
}

// CommandTimeout returns the per-command timeout, zero when disabled.
func (c ClearToolConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// QuietPeriod returns the quiet period as a duration.
func (p PollingConfig) QuietPeriod() time.Duration {
	return time.Duration(p.QuietPeriodMinutes) * time.Minute
}

// Validate checks value ranges. Load rules are validated by the commands
// that use them.
func (c *Config) Validate() error {
	if c.ClearTool.LastNumEvents < 1 {
		return fmt.Errorf("cleartool.lastNumEvents must be positive, got %d", c.ClearTool.LastNumEvents)
	}
	if c.ClearTool.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("cleartool.commandTimeoutSeconds must not be negative, got %d", c.ClearTool.CommandTimeoutSeconds)
	}
	if c.ClearTool.Concurrency < 0 {
		return fmt.Errorf("cleartool.concurrency must not be negative, got %d", c.ClearTool.Concurrency)
	}
	if c.Polling.QuietPeriodMinutes < 0 {
		return fmt.Errorf("polling.quietPeriodMinutes must not be negative, got %d", c.Polling.QuietPeriodMinutes)
	}
	if _, err := c.ClearTool.Location(); err != nil {
		return err
	}
	if _, err := c.ClearTool.Encoding(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from a file, merging with defaults.
// Files ending in .yaml or .yml are read as YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := []string{".clearpoll.json", ".clearpoll.yaml", ".clearpoll.yml"}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, ".clearpoll.json"))
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			candidates = append(candidates, filepath.Join(envHome, ".clearpoll.json"))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file in the format implied by its
// extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
