package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/konvertorxml/konvertorxml/internal/ledger"
	"github.com/konvertorxml/konvertorxml/internal/pipeline"
	"github.com/konvertorxml/konvertorxml/internal/tui/styles"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

const (
	labelWidth = 20
	pathWidth  = 48
)

var labelStyle = styles.Muted.Width(labelWidth)

// field is one "label value" line of a report.
type field struct {
	label string
	value string
}

func printFields(w io.Writer, fields []field) {
	for _, f := range fields {
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(f.label), f.value)
	}
}

func cleanFields(rep ledger.Report) []field {
	fields := []field{
		{"Encoding", string(rep.Encoding)},
		{"Preamble rows", fmt.Sprint(rep.SkippedPreamble)},
	}
	if rep.FooterRow > 0 {
		fields = append(fields, field{"Footer at row", fmt.Sprint(rep.FooterRow)})
	}
	return append(fields,
		field{"Names filled", fmt.Sprint(rep.FilledNames)},
		field{"Summaries removed", fmt.Sprint(rep.RemovedSummaries)},
		field{"Cash rows removed", fmt.Sprint(rep.RemovedCash)},
		field{"Rows written", fmt.Sprint(rep.Rows)},
	)
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "%s %s → %s\n",
		styles.SuccessMsg.Render("✓"),
		filepath.Base(res.Input),
		util.TruncatePath(res.Output, pathWidth))

	fields := []field{
		{"Items", fmt.Sprint(res.Items)},
		{"Size", humanize.Bytes(uint64(res.Bytes))},
		{"Duration", res.Duration.Round(time.Millisecond).String()},
	}
	if res.UsedFallback {
		fields = append(fields, field{"Cleaning", styles.Warning.Render("header search fallback")})
	} else {
		fields = append(fields, cleanFields(res.Report)...)
	}
	printFields(w, fields)
}

func printOutcome(w io.Writer, o pipeline.Outcome) {
	line := fmt.Sprintf("%s  %s", styles.Status(o.Status.String()), util.TruncatePath(o.Input, pathWidth))
	switch {
	case o.Result != nil:
		line += styles.Muted.Render(fmt.Sprintf("  %d items, %s", o.Result.Items, humanize.Bytes(uint64(o.Result.Bytes))))
	case o.Error != "":
		line += "  " + styles.Error.Render(o.Error)
	}
	fmt.Fprintln(w, line)
}

func printOutcomes(w io.Writer, outcomes []pipeline.Outcome) {
	for _, o := range outcomes {
		printOutcome(w, o)
	}

	s := pipeline.Summarize(outcomes)
	fmt.Fprintf(w, "\n%d files: %s ok, %s failed, %d canceled\n",
		s.Total,
		styles.Secondary.Render(fmt.Sprint(s.OK)),
		styles.Error.Render(fmt.Sprint(s.Failed)),
		s.Canceled)
}
