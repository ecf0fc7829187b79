package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

// AppName names the config directory and log file.
const AppName = "konvertorxml"

// Config represents the complete konvertorxml configuration
type Config struct {
	Document udxml.Header  `mapstructure:"document"`
	CSV      CSVConfig     `mapstructure:"csv"`
	XML      XMLConfig     `mapstructure:"xml"`
	Batch    BatchConfig   `mapstructure:"batch"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// CSVConfig controls how ledger CSV files are read and written
type CSVConfig struct {
	// Delimiter forces the separator of cleaned CSV files read by the
	// converter. Empty means sniff. "tab" or "\t" select a tab.
	Delimiter string `mapstructure:"delimiter"`
	// CleanedPrefix is prepended to the file name of cleaned CSV files
	// written by the clean command (default: "cleaned__")
	CleanedPrefix string `mapstructure:"cleaned_prefix"`
}

// XMLConfig controls XML output
type XMLConfig struct {
	// KeepEmpty writes blank attributes instead of omitting them (default: false)
	KeepEmpty bool `mapstructure:"keep_empty"`
}

// BatchConfig controls the batch command
type BatchConfig struct {
	// MaxParallel is the number of files converted concurrently (default: 4)
	MaxParallel int `mapstructure:"max_parallel"`
}

// WatchConfig controls inbox mode
type WatchConfig struct {
	// Inbox is the directory watched for new CSV exports
	Inbox string `mapstructure:"inbox"`
	// Outbox receives the generated XML. Empty means the inbox.
	Outbox string `mapstructure:"outbox"`
	// Archive receives processed exports. Empty leaves them in place.
	Archive string `mapstructure:"archive"`
	// DebounceMs is how long a file must stay unchanged before it is
	// converted (default: 500)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging to file is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Document: udxml.Header{
			MandantID: "1",
			DruhUD:    "ID mzdy",
			TypUD:     "I",
		},
		CSV: CSVConfig{
			CleanedPrefix: "cleaned__",
		},
		Batch: BatchConfig{
			MaxParallel: 4,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Debounce returns the settle delay as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// DelimiterRune returns the configured delimiter, or zero when the
// delimiter should be sniffed.
func (c *CSVConfig) DelimiterRune() rune {
	r, _ := ParseDelimiter(c.Delimiter)
	return r
}

// ParseDelimiter converts a user supplied delimiter into a rune. Empty
// input yields zero. It reports false when s is not a single character.
func ParseDelimiter(s string) (rune, bool) {
	switch strings.ToLower(s) {
	case "":
		return 0, true
	case "tab", `\t`, "\t":
		return '\t', true
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] == '\n' || runes[0] == '\r' || runes[0] == '"' {
		return 0, false
	}
	return runes[0], true
}

// DefaultValues returns the default of every configuration key in dot
// notation.
func DefaultValues() map[string]any {
	defaults := Default()

	values := map[string]any{
		// CSV
		"csv.delimiter":      defaults.CSV.Delimiter,
		"csv.cleaned_prefix": defaults.CSV.CleanedPrefix,
		// XML
		"xml.keep_empty": defaults.XML.KeepEmpty,
		// Batch
		"batch.max_parallel": defaults.Batch.MaxParallel,
		// Watch
		"watch.inbox":       defaults.Watch.Inbox,
		"watch.outbox":      defaults.Watch.Outbox,
		"watch.archive":     defaults.Watch.Archive,
		"watch.debounce_ms": defaults.Watch.DebounceMs,
		// Logging
		"logging.enabled":     defaults.Logging.Enabled,
		"logging.level":       defaults.Logging.Level,
		"logging.max_size_mb": defaults.Logging.MaxSizeMB,
		"logging.max_backups": defaults.Logging.MaxBackups,
		"logging.compress":    defaults.Logging.Compress,
	}
	for _, a := range defaults.Document.Attrs() {
		values["document."+a.Name] = a.Value
	}
	return values
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	values := DefaultValues()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetDefaults registers default values with viper
func SetDefaults() {
	for key, value := range DefaultValues() {
		viper.SetDefault(key, value)
	}
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogFile returns the path to the log file
func LogFile() string {
	return filepath.Join(ConfigDir(), AppName+".log")
}
