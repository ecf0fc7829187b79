// Package ledger cleans accounting-ledger CSV exports into the plain
// six-column table the XML converter expects.
//
// Exports carry a preamble before the header, extra columns, thousands
// separators inside account numbers, blank spacer rows, a signature footer
// starting with "Vypracoval:", and group summary rows whose name belongs to
// the detail rows that follow. Clean removes all of that and reports what it
// did.
package ledger

import (
	"path/filepath"
	"strings"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
)

// Canonical column names as they appear in the export header.
const (
	ColName     = "Názov"
	ColDebit    = "Účet MD"
	ColCredit   = "Účet Dal"
	ColCenter   = "Stred."
	ColContract = "Zák."
	ColActivity = "Činn."
)

// Columns lists the canonical columns in export order.
var Columns = []string{ColName, ColDebit, ColCredit, ColCenter, ColContract, ColActivity}

const (
	footerMarker = "Vypracoval:"
	cashPayout   = "výplata v hotovosti"
)

// columnPatterns match lower-cased header cells. The bare "md" and "dal"
// patterns keep abbreviated exports working.
var columnPatterns = [][]string{
	{"názov", "nazov"},
	{"účet md", "ucet md", "md"},
	{"účet dal", "ucet dal", "dal"},
	{"stred", "stred."},
	{"zák", "zak", "zák.", "zak."},
	{"činn", "cinn", "činn.", "cinn."},
}

// numericPatterns select the columns whose cells lose all spaces.
var numericPatterns = []string{"účet md", "ucet md", "účet dal", "ucet dal", "stred", "zák", "zak", "činn", "cinn"}

// Report describes what Clean removed or changed.
type Report struct {
	Encoding         textenc.Encoding `yaml:"encoding,omitempty"`
	SkippedPreamble  int              `yaml:"skipped_preamble"`
	FooterRow        int              `yaml:"footer_row,omitempty"`
	FilledNames      int              `yaml:"filled_names"`
	RemovedSummaries int              `yaml:"removed_summaries"`
	RemovedCash      int              `yaml:"removed_cash_payouts"`
	Rows             int              `yaml:"rows"`
}

// Clean applies the cleaning rules to rows and returns the cleaned table,
// header first. It fails with ErrHeaderNotFound when no row looks like the
// ledger header.
func Clean(rows [][]string) ([][]string, Report, error) {
	var rep Report

	headerIdx, ok := findHeader(rows)
	if !ok {
		return nil, rep, errors.ErrHeaderNotFound
	}
	rep.SkippedPreamble = headerIdx
	out := selectColumns(rows[headerIdx:])
	out = stripNumericSpaces(out)
	out = dropEmpty(out)

	for i, row := range out {
		if strings.HasPrefix(firstCell(row), footerMarker) {
			rep.FooterRow = i + 1
			out = out[:i]
			break
		}
	}
	if len(out) == 0 {
		return out, rep, nil
	}

	activity := activityColumn(out[0])
	out, rep.FilledNames, rep.RemovedSummaries = foldSummaries(out, activity)

	kept := out[:1]
	for _, row := range out[1:] {
		if strings.ToLower(firstCell(row)) == cashPayout {
			rep.RemovedCash++
			continue
		}
		kept = append(kept, row)
	}
	rep.Rows = len(kept)
	return kept, rep, nil
}

// DefaultOutputPath returns the sibling "cleaned__<name>" path for input.
func DefaultOutputPath(input, prefix string) string {
	if prefix == "" {
		prefix = "cleaned__"
	}
	return filepath.Join(filepath.Dir(input), prefix+filepath.Base(input))
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return textenc.CleanCell(row[0])
}

// findHeader prefers a row that starts with the name column and falls back
// to any row mentioning all three key columns.
func findHeader(rows [][]string) (int, bool) {
	mentionsKeys := func(row []string) bool {
		joined := strings.Join(row, ";")
		return strings.Contains(joined, ColDebit) && strings.Contains(joined, ColCredit)
	}
	for i, row := range rows {
		if len(row) > 0 && firstCell(row) == ColName && mentionsKeys(row) {
			return i, true
		}
	}
	for i, row := range rows {
		if strings.Contains(strings.Join(row, ";"), ColName) && mentionsKeys(row) {
			return i, true
		}
	}
	return 0, false
}

func lowerHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = strings.ToLower(textenc.CleanCell(h))
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// selectColumns keeps the header cells matching any canonical column, in
// their original order. With no match the table is returned unchanged.
func selectColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	var keep []int
	for i, name := range lowerHeader(rows[0]) {
		for _, patterns := range columnPatterns {
			if containsAny(name, patterns) {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == 0 {
		return rows
	}

	out := make([][]string, len(rows))
	for r, row := range rows {
		trimmed := make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				trimmed[j] = row[idx]
			}
		}
		out[r] = trimmed
	}
	return out
}

func stripNumericSpaces(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	var numeric []int
	for i, name := range lowerHeader(rows[0]) {
		if containsAny(name, numericPatterns) {
			numeric = append(numeric, i)
		}
	}

	space := strings.NewReplacer("\u00a0", "", " ", "")
	for _, row := range rows[1:] {
		for _, idx := range numeric {
			if idx < len(row) {
				row[idx] = space.Replace(row[idx])
			}
		}
	}
	return rows
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if textenc.CleanCell(c) != "" {
			return false
		}
	}
	return true
}

func dropEmpty(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if !isEmptyRow(row) {
			out = append(out, row)
		}
	}
	return out
}

// activityColumn returns the index of the activity ("Činn.") column, or the
// last column when the header has none.
func activityColumn(header []string) int {
	for i, name := range lowerHeader(header) {
		if strings.Contains(name, "činn") || strings.Contains(name, "cinn") {
			return i
		}
	}
	if len(header) == 0 {
		return 0
	}
	return len(header) - 1
}

// nonBlankSet reports whether the non-blank cells of row are exactly want.
func nonBlankSet(row []string, want ...int) bool {
	set := make(map[int]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	seen := 0
	for i, c := range row {
		if textenc.CleanCell(c) == "" {
			continue
		}
		if !set[i] {
			return false
		}
		seen++
	}
	return seen > 0 && seen == len(set)
}

// foldSummaries removes group summary rows and copies the group name into
// detail rows that have none. A summary row carrying a name and an amount
// opens a group; one carrying only an amount is a subtotal. A named detail
// row closes the current group.
func foldSummaries(rows [][]string, activity int) ([][]string, int, int) {
	out := [][]string{rows[0]}
	var group string
	filled, removed := 0, 0

	for _, row := range rows[1:] {
		if nonBlankSet(row, 0, activity) {
			group = firstCell(row)
			removed++
			continue
		}
		if nonBlankSet(row, activity) {
			removed++
			continue
		}

		name := firstCell(row)
		if name == "" && group != "" {
			row[0] = group
			filled++
		}
		if name != "" {
			group = ""
		}
		out = append(out, row)
	}
	return out, filled, removed
}
