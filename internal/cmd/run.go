package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/pipeline"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

var runCmd = &cobra.Command{
	Use:   "run <input.csv>",
	Short: "Clean an export and convert it in one step",
	Long: `Clean a raw ledger export and convert it into a posting document.

When the cleaner cannot handle the export, the rows from the first line that
names every ledger column are converted instead. All six document attributes
are required. The XML is written next to the input as <name>.xml unless -o is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runOutput    string
	runDelimiter string
	runKeepEmpty bool
	runHeader    *headerFlags
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output XML path (default <input stem>.xml)")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "separator of the cleaned CSV (default sniffed)")
	runCmd.Flags().BoolVar(&runKeepEmpty, "keep-empty", false, "write blank attributes instead of omitting them")
	runHeader = addHeaderFlags(runCmd, true)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { a.Close(err) }()

	input := args[0]
	output := runOutput
	if output == "" {
		output = util.SiblingWithExt(input, ".xml")
	}
	delim, err := delimiterFlag(runDelimiter, a.cfg.CSV)
	if err != nil {
		return err
	}
	header, err := runHeader.resolve(a.cfg.Document, input)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	res, err := a.runner().Run(ctx, pipeline.Job{
		Input:     input,
		Output:    output,
		Header:    header,
		KeepEmpty: runKeepEmpty || a.cfg.XML.KeepEmpty,
		Delimiter: delim,
	})
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}
