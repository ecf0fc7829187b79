package ledger

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/csvio"
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
)

// Delimiter is the field separator of raw ledger exports.
const Delimiter = ';'

// CleanFile cleans the export at in and writes the result to out in the
// encoding the export was read with.
func CleanFile(fs afero.Fs, in, out string) (Report, error) {
	table, err := csvio.Read(fs, in, csvio.ReadOptions{
		Candidates:     textenc.CleanerCandidates,
		Delimiter:      Delimiter,
		KeepBlankLines: true,
	})
	if err != nil {
		return Report{}, errors.NewCleanError("read export", err).WithFile(in)
	}

	rows, rep, err := Clean(table.Rows)
	rep.Encoding = table.Encoding
	if err != nil {
		return rep, errors.NewCleanError("clean export", err).WithFile(in)
	}

	if err := csvio.Write(fs, out, rows, table.Encoding, Delimiter); err != nil {
		return rep, errors.NewCleanError("write cleaned CSV", err).WithFile(out)
	}
	return rep, nil
}

// ExtractFromHeader is the lenient fallback used when CleanFile fails. It
// locates the first line whose cells include every canonical column (compared
// folded) and copies the source from that line to the end into dst as UTF-8.
// It returns false when no such line exists.
func ExtractFromHeader(fs afero.Fs, src, dst string) (bool, error) {
	raw, err := afero.ReadFile(fs, src)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", src)
	}
	text, _ := textenc.DecodeLossy(raw, textenc.ConverterCandidates...)

	delim, ok := csvio.SniffDelimiter(csvio.Sample(text), csvio.DefaultCandidates)
	if !ok {
		delim = Delimiter
	}

	needed := make([]string, len(Columns))
	for i, c := range Columns {
		needed[i] = textenc.Fold(c)
	}

	lines := splitLines(text)
	for i, line := range lines {
		records, err := csvio.Parse(line, delim, true)
		if err != nil || len(records) == 0 {
			continue
		}
		seen := make(map[string]bool, len(records[0]))
		for _, cell := range records[0] {
			seen[textenc.Fold(cell)] = true
		}
		if !hasAll(seen, needed) {
			continue
		}

		out := strings.Join(lines[i:], "\n") + "\n"
		if err := afero.WriteFile(fs, dst, []byte(out), 0644); err != nil {
			return false, errors.Wrapf(err, "failed to write %s", dst)
		}
		return true, nil
	}
	return false, nil
}

func hasAll(set map[string]bool, keys []string) bool {
	for _, k := range keys {
		if !set[k] {
			return false
		}
	}
	return true
}

// splitLines splits on LF, CRLF and lone CR and drops the empty tail left
// by a trailing line break.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
