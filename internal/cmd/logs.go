package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/config"
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View conversion logs",
	Long: `View and filter the konvertorxml log, including rotated backups.

Examples:
  # Show the last 50 entries
  konvertorxml logs

  # Show everything from one run
  konvertorxml logs --run 0f8c2a4e -n 0

  # Show warnings and errors from the last hour
  konvertorxml logs --level warn --since 1h

  # Entries about one file, as CSV
  konvertorxml logs --file mzdy.csv --format csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail   int
	logsLevel  string
	logsSince  string
	logsRun    string
	logsFile   string
	logsGrep   string
	logsFormat string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "Filter by run id (prefix)")
	logsCmd.Flags().StringVar(&logsFile, "file", "", "Filter by input file (substring)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter by message or error text (case-insensitive)")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Output format: text, json or csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	filter := logging.LogFilter{
		Level:    logsLevel,
		RunID:    logsRun,
		File:     logsFile,
		Contains: logsGrep,
	}
	if logsLevel != "" && !validLevel(logsLevel) {
		return errors.NewValidationError("unknown log level").
			WithField("level").
			WithValue(logsLevel)
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return errors.NewValidationError("invalid duration").
				WithField("since").
				WithValue(logsSince).
				WithCause(err)
		}
		filter.Since = time.Now().Add(-d)
	}

	path := config.LogFile()
	entries, err := logging.ReadLogs(afero.NewOsFs(), path)
	if err != nil {
		return errors.Wrapf(err, "no log at %s", path)
	}
	entries = logging.FilterLogs(entries, filter)
	entries = logging.Tail(entries, logsTail)

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries.")
		return nil
	}
	return logging.WriteEntries(cmd.OutOrStdout(), entries, logsFormat)
}

func validLevel(level string) bool {
	for _, l := range logging.ValidLevels() {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

