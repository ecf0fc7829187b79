package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/ledger"
	"github.com/konvertorxml/konvertorxml/internal/tui/styles"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <input.csv> [output.csv]",
	Short: "Clean a ledger CSV export",
	Long: `Clean a ledger CSV export into the six-column table the converter reads.

The preamble before the header row, extra columns, spaces inside account
numbers, blank rows, the "Vypracoval:" footer, group summary rows and cash
payout rows are removed. The output keeps the export's encoding and ';'
separator.

Without an output path the result is written next to the input with the
csv.cleaned_prefix prefix (default "cleaned__").`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { a.Close(err) }()

	input := args[0]
	output := ledger.DefaultOutputPath(input, a.cfg.CSV.CleanedPrefix)
	if len(args) > 1 {
		output = args[1]
	}

	log := a.logger.WithFile(input).WithStage("clean")
	rep, err := ledger.CleanFile(a.fs, input, output)
	if err != nil {
		return err
	}
	log.Info("cleaned export",
		"output", output,
		"encoding", string(rep.Encoding),
		"rows", rep.Rows)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s Cleaned %s → %s\n", styles.SuccessMsg.Render("✓"), input, output)
	printFields(w, cleanFields(rep))
	if rep.Rows <= 1 {
		fmt.Fprintln(w, styles.WarningMsg.Render("No ledger rows left after cleaning."))
	}
	return nil
}
