// Package config provides CLI commands for managing konvertorxml configuration.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/konvertorxml/konvertorxml/internal/config"
	tuiconfig "github.com/konvertorxml/konvertorxml/internal/tui/config"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify konvertorxml configuration",
	Long: `View or modify konvertorxml configuration.

Without arguments, opens an interactive configuration UI.
Use 'config show' to display configuration non-interactively.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigInteractive,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  konvertorxml config set document.druh_ud "ID mzdy"
  konvertorxml config set csv.delimiter tab
  konvertorxml config set batch.max_parallel 8

Valid keys:
  document.cislo_ud     - Default document number
  document.datum_ud     - Default document date
  document.mandant_id   - Default mandant id
  document.druh_ud      - Default document kind
  document.typ_ud       - Default document type
  document.text_ud      - Default document text
  csv.delimiter         - Separator of cleaned CSV files (empty = sniff, "tab")
  csv.cleaned_prefix    - File name prefix of cleaned CSV files
  xml.keep_empty        - Write blank attributes (true/false)
  batch.max_parallel    - Files converted at once
  watch.inbox           - Directory watched for exports
  watch.outbox          - Directory for XML output
  watch.archive         - Directory for processed exports
  watch.debounce_ms     - Settle delay in milliseconds
  logging.enabled       - Write the log file (true/false)
  logging.level         - Log level: debug, info, warn, error
  logging.max_size_mb   - Log size before rotation
  logging.max_backups   - Rotated logs kept
  logging.compress      - Gzip rotated logs (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/konvertorxml/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  konvertorxml config reset                   # Reset all to defaults
  konvertorxml config reset batch.max_parallel  # Reset only batch.max_parallel`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)

	for _, name := range udxml.HeaderAttrs {
		keyTypes["document."+name] = "string"
	}
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes maps every settable key to how its value is parsed.
var keyTypes = map[string]string{
	"csv.delimiter":       "delimiter",
	"csv.cleaned_prefix":  "string",
	"xml.keep_empty":      "bool",
	"batch.max_parallel":  "positive",
	"watch.inbox":         "string",
	"watch.outbox":        "string",
	"watch.archive":       "string",
	"watch.debounce_ms":   "int",
	"logging.enabled":     "bool",
	"logging.level":       "level",
	"logging.max_size_mb": "positive",
	"logging.max_backups": "int",
	"logging.compress":    "bool",
}

func runConfigInteractive(cmd *cobra.Command, args []string) error {
	return tuiconfig.Run()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Get()
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "document:")
	for _, a := range cfg.Document.Attrs() {
		fmt.Fprintf(w, "  %s: %q\n", a.Name, a.Value)
	}

	fmt.Fprintln(w, "csv:")
	fmt.Fprintf(w, "  delimiter: %q\n", cfg.CSV.Delimiter)
	fmt.Fprintf(w, "  cleaned_prefix: %q\n", cfg.CSV.CleanedPrefix)

	fmt.Fprintln(w, "xml:")
	fmt.Fprintf(w, "  keep_empty: %v\n", cfg.XML.KeepEmpty)

	fmt.Fprintln(w, "batch:")
	fmt.Fprintf(w, "  max_parallel: %d\n", cfg.Batch.MaxParallel)

	fmt.Fprintln(w, "watch:")
	fmt.Fprintf(w, "  inbox: %s\n", cfg.Watch.Inbox)
	fmt.Fprintf(w, "  outbox: %s\n", cfg.Watch.Outbox)
	fmt.Fprintf(w, "  archive: %s\n", cfg.Watch.Archive)
	fmt.Fprintf(w, "  debounce_ms: %d\n", cfg.Watch.DebounceMs)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(w, "  max_backups: %d\n", cfg.Logging.MaxBackups)
	fmt.Fprintf(w, "  compress: %v\n", cfg.Logging.Compress)

	return nil
}

// parseValue converts value according to the type of key.
func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'konvertorxml config set --help' to see valid keys", key)
	}

	switch keyType {
	case "delimiter":
		if _, ok := appconfig.ParseDelimiter(value); !ok {
			return nil, fmt.Errorf("invalid value for %s: expected a single character or \"tab\"", key)
		}
		return value, nil
	case "level":
		if !slices.Contains(appconfig.ValidLogLevels(), strings.ToLower(value)) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return strings.ToLower(value), nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int", "positive":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 || (keyType == "positive" && intVal == 0) {
			return nil, fmt.Errorf("invalid value for %s: must be positive", key)
		}
		return intVal, nil
	}
	return value, nil
}

func writeConfig() (string, error) {
	// Ensure config directory exists
	configDir := appconfig.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	viper.Set(key, typedValue)
	configFile, err := writeConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

const configTemplate = `# konvertorxml configuration

# Default attributes of the <uctovny_doklad> element. Command flags and the
# interactive form override them.
document:
  cislo_ud: ""
  datum_ud: ""
  mandant_id: "1"
  druh_ud: "ID mzdy"
  typ_ud: "I"
  text_ud: ""

csv:
  # Separator of cleaned CSV files read by the converter.
  # Empty sniffs it from the file; use "tab" for a tab.
  delimiter: ""
  # Prefix of files written by 'konvertorxml clean'
  cleaned_prefix: "cleaned__"

xml:
  # Write blank attributes as empty strings instead of omitting them
  keep_empty: false

batch:
  # Files converted at once by 'konvertorxml batch'
  max_parallel: 4

# Inbox mode ('konvertorxml watch')
watch:
  inbox: ""
  # Empty writes the XML into the inbox
  outbox: ""
  # Empty leaves processed exports in the inbox
  archive: ""
  # How long a file must stay unchanged before it is converted
  debounce_ms: 500

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Rotate the log at this size
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'konvertorxml config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to set your document defaults.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(w, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(w, "\nLog file:", appconfig.LogFile())
	fmt.Fprintln(w, "\nEnvironment variables: KONVERTORXML_* (e.g., KONVERTORXML_DOCUMENT_MANDANT_ID)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...\n")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	// Find an editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "nano", "vi"} {
			if _, err := execLookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaultValues := appconfig.DefaultValues()

	if len(args) == 0 {
		for key, value := range defaultValues {
			viper.Set(key, value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaultValues[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'konvertorxml config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to default: %v\n", key, value)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}
