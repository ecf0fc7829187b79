package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/pipeline"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input.csv>...",
	Short: "Clean and convert many exports in parallel",
	Long: `Run the clean and convert workflow for every input, several at a time.

All inputs share one set of document attributes. Each XML is written next to
its input, or into --out-dir. A failing file does not stop the others; the
command fails when any file failed. --report writes a YAML manifest of every
outcome.

Examples:
  konvertorxml batch exports/*.csv --out-dir xml --cislo_ud 250901 --datum_ud 30.09.2025
  konvertorxml batch a.csv b.csv --parallel 2 --report batch.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchOutDir    string
	batchReport    string
	batchParallel  int
	batchDelimiter string
	batchKeepEmpty bool
	batchHeader    *headerFlags
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for the XML files (default next to each input)")
	batchCmd.Flags().StringVar(&batchReport, "report", "", "write a YAML report of all outcomes to this path")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", 0, "files converted at once (default batch.max_parallel)")
	batchCmd.Flags().StringVar(&batchDelimiter, "delimiter", "", "separator of the cleaned CSV (default sniffed)")
	batchCmd.Flags().BoolVar(&batchKeepEmpty, "keep-empty", false, "write blank attributes instead of omitting them")
	batchHeader = addHeaderFlags(batchCmd, true)
}

func batchOutput(input, outDir string) string {
	if outDir == "" {
		return util.SiblingWithExt(input, ".xml")
	}
	return filepath.Join(outDir, util.Stem(input)+".xml")
}

// checkOutputs fails when two jobs would write the same XML file, which
// happens when inputs from different directories share a name.
func checkOutputs(jobs []pipeline.Job) error {
	seen := make(map[string]string, len(jobs))
	for _, j := range jobs {
		key := filepath.Clean(j.Output)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if prev, ok := seen[key]; ok {
			return errors.NewValidationError(fmt.Sprintf("%s and %s would both be written to %s", prev, j.Input, j.Output)).
				WithField("out-dir").
				WithValue(j.Output)
		}
		seen[key] = j.Input
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { a.Close(err) }()

	delim, err := delimiterFlag(batchDelimiter, a.cfg.CSV)
	if err != nil {
		return err
	}
	header, err := batchHeader.resolve(a.cfg.Document, fmt.Sprintf("%d files", len(args)))
	if err != nil {
		return err
	}
	parallel := batchParallel
	if parallel <= 0 {
		parallel = a.cfg.Batch.MaxParallel
	}
	jobs := make([]pipeline.Job, len(args))
	for i, input := range args {
		jobs[i] = pipeline.Job{
			Input:     input,
			Output:    batchOutput(input, batchOutDir),
			Header:    header,
			KeepEmpty: batchKeepEmpty || a.cfg.XML.KeepEmpty,
			Delimiter: delim,
		}
	}
	if err := checkOutputs(jobs); err != nil {
		return err
	}
	if batchOutDir != "" {
		if err := a.fs.MkdirAll(batchOutDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	started := time.Now()
	a.logger.Info("batch started", "files", len(jobs), "parallel", parallel)
	outcomes := a.runner().RunBatch(ctx, jobs, parallel)
	printOutcomes(cmd.OutOrStdout(), outcomes)

	if batchReport != "" {
		rep := pipeline.NewReport(a.runID, started, time.Now(), outcomes)
		if err := pipeline.WriteReport(a.fs, batchReport, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", batchReport)
	}

	s := pipeline.Summarize(outcomes)
	a.logger.Info("batch finished", "ok", s.OK, "failed", s.Failed, "canceled", s.Canceled)
	switch {
	case s.Canceled > 0:
		return fmt.Errorf("%w: %d of %d files not converted", errors.ErrCanceled, s.Canceled, s.Total)
	case s.Failed > 0:
		return fmt.Errorf("%d of %d files failed", s.Failed, s.Total)
	}
	return nil
}
