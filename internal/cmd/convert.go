package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/config"
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/tui/styles"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.csv> <output.xml>",
	Short: "Convert a cleaned CSV into posting XML",
	Long: `Convert a cleaned ledger CSV into a <uctovne_doklady> document.

Every row yields a debit item booked to "Účet MD" and a credit item booked to
"Účet Dal". The document attributes come from the flags, then from the
document section of the configuration. On a terminal a form asks for them;
blank attributes are then omitted from the output unless --keep-empty is set.
With --no-interactive every attribute must be set.

Examples:
  konvertorxml convert cleaned__mzdy.csv mzdy.xml
  konvertorxml convert mzdy.csv mzdy.xml --no-interactive \
    --cislo_ud 250901 --datum_ud 30.09.2025 --text_ud "Mzdy 09/2025"`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	convertDelimiter string
	convertKeepEmpty bool
	convertHeader    *headerFlags
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertDelimiter, "delimiter", "", `CSV separator, "tab" for a tab (default: csv.delimiter, else sniffed)`)
	convertCmd.Flags().BoolVar(&convertKeepEmpty, "keep-empty", false, "write blank attributes instead of omitting them")
	convertHeader = addHeaderFlags(convertCmd, true)
}

// delimiterFlag resolves a --delimiter value over the configured one.
func delimiterFlag(flag string, cfg config.CSVConfig) (rune, error) {
	if flag == "" {
		return cfg.DelimiterRune(), nil
	}
	r, ok := config.ParseDelimiter(flag)
	if !ok {
		return 0, errors.NewValidationError("delimiter must be a single character").
			WithField("delimiter").
			WithValue(flag)
	}
	return r, nil
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { a.Close(err) }()

	input, output := args[0], args[1]
	delim, err := delimiterFlag(convertDelimiter, a.cfg.CSV)
	if err != nil {
		return err
	}
	header, err := convertHeader.resolve(a.cfg.Document, input)
	if err != nil {
		return err
	}

	keepEmpty := convertKeepEmpty || a.cfg.XML.KeepEmpty
	res, err := udxml.ConvertFile(a.fs, input, output, header, udxml.Options{
		Delimiter: delim,
		KeepEmpty: keepEmpty,
	})
	if err != nil {
		return err
	}
	a.logger.WithFile(input).WithStage("convert").Info("wrote XML",
		"output", output,
		"items", res.Items(),
		"bytes", len(res.XML))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s Wrote %s\n", styles.SuccessMsg.Render("✓"), output)
	printFields(w, []field{
		{"Items", fmt.Sprint(res.Items())},
		{"Size", humanize.Bytes(uint64(len(res.XML)))},
	})
	if missing := header.Missing(); len(missing) > 0 && !keepEmpty {
		fmt.Fprintln(w, styles.WarningMsg.Render(fmt.Sprintf("Omitted blank attributes: %v", missing)))
	}
	return nil
}
