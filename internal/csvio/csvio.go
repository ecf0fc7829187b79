// Package csvio reads and writes delimiter-separated ledger files through an
// afero filesystem, handling encoding detection and delimiter sniffing.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
)

// SniffWindow is how many characters of a file the delimiter sniffer inspects.
const SniffWindow = 4096

// DefaultCandidates are the delimiters the sniffer chooses from, in
// tie-break order.
var DefaultCandidates = []rune{',', ';', '\t', '|'}

// Table is a parsed file together with how it was read.
type Table struct {
	Rows      [][]string
	Encoding  textenc.Encoding
	Delimiter rune
}

// ReadOptions control Read.
type ReadOptions struct {
	// Candidates are tried in order for encoding detection.
	Candidates []textenc.Encoding
	// Lossy decodes as UTF-8 with replacement characters when no candidate
	// fits, instead of failing with ErrEncodingUndetected.
	Lossy bool
	// Delimiter forces the field separator. Zero means sniff.
	Delimiter rune
	// Fallback is used when sniffing finds no consistent delimiter.
	Fallback rune
	// TrimLeadingSpace skips whitespace following a delimiter.
	TrimLeadingSpace bool
	// KeepBlankLines yields an empty record for every blank line before
	// the last record, so row indexes follow the file's lines.
	KeepBlankLines bool
}

// Read loads path from fs and parses it according to opts.
func Read(fs afero.Fs, path string, opts ReadOptions) (*Table, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, enc, err := decode(raw, opts)
	if err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		var ok bool
		if delim, ok = SniffDelimiter(Sample(text), DefaultCandidates); !ok {
			delim = opts.Fallback
		}
	}
	if delim == 0 {
		delim = ','
	}

	rows, err := parse(text, delim, opts.TrimLeadingSpace, opts.KeepBlankLines)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Table{Rows: rows, Encoding: enc, Delimiter: delim}, nil
}

func decode(raw []byte, opts ReadOptions) (string, textenc.Encoding, error) {
	if opts.Lossy {
		text, enc := textenc.DecodeLossy(raw, opts.Candidates...)
		return text, enc, nil
	}
	enc, ok := textenc.Detect(raw, opts.Candidates...)
	if !ok {
		return "", "", errors.ErrEncodingUndetected
	}
	text, err := textenc.Decode(raw, enc)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errors.ErrEncodingUndetected, err)
	}
	return text, enc, nil
}

// Parse splits text into records. Field counts may vary between records
// and stray quotes inside unquoted fields are kept verbatim. Blank lines
// produce no record.
func Parse(text string, delim rune, trimLeadingSpace bool) ([][]string, error) {
	return parse(text, delim, trimLeadingSpace, false)
}

func parse(text string, delim rune, trimLeadingSpace, keepBlank bool) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = trimLeadingSpace

	var rows [][]string
	next := 1 // first line not yet accounted for
	var offset int64
	var newlines int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if keepBlank {
			// The reader skips blank lines; the gap between the last
			// record and this one's first line holds them.
			start, _ := r.FieldPos(0)
			for ; next < start; next++ {
				rows = append(rows, []string{})
			}
			end := r.InputOffset()
			newlines += strings.Count(text[offset:end], "\n")
			offset = end
			next = newlines + 1
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// Format renders rows with CRLF line endings and minimal quoting.
func Format(rows [][]string, delim rune) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delim
	w.UseCRLF = true
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write formats rows, encodes them in enc and writes the result to path.
func Write(fs afero.Fs, path string, rows [][]string, enc textenc.Encoding, delim rune) error {
	text, err := Format(rows, delim)
	if err != nil {
		return fmt.Errorf("failed to format CSV: %w", err)
	}
	data, err := textenc.Encode(text, enc)
	if err != nil {
		return fmt.Errorf("failed to encode CSV as %s: %w", enc, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Sample returns at most SniffWindow characters from the start of text.
func Sample(text string) string {
	n := 0
	for i := range text {
		if n == SniffWindow {
			return text[:i]
		}
		n++
	}
	return text
}

// SniffDelimiter guesses the field separator of sample. For each candidate
// it counts occurrences outside double quotes on every line, takes the most
// common non-zero count and scores the candidate by the share of lines that
// have exactly that count. The best score wins; ties go to the earlier
// candidate. A truncated final line is ignored.
func SniffDelimiter(sample string, candidates []rune) (rune, bool) {
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return 0, false
	}

	var best rune
	bestScore := 0.0
	for _, cand := range candidates {
		counts := make(map[int]int)
		for _, line := range lines {
			counts[countOutsideQuotes(line, cand)]++
		}

		mode, modeLines := 0, 0
		for count, n := range counts {
			if count == 0 {
				continue
			}
			if n > modeLines || (n == modeLines && count > mode) {
				mode, modeLines = count, n
			}
		}
		if mode == 0 {
			continue
		}

		score := float64(modeLines) / float64(len(lines))
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best, bestScore > 0
}

func sampleLines(sample string) []string {
	parts := strings.Split(sample, "\n")
	// Drop the tail when the sample was cut mid-line.
	if len(parts) > 1 && utf8.RuneCountInString(sample) >= SniffWindow {
		parts = parts[:len(parts)-1]
	}
	lines := parts[:0]
	for _, p := range parts {
		p = strings.TrimRight(p, "\r")
		if strings.TrimSpace(p) != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

func countOutsideQuotes(line string, delim rune) int {
	inQuotes := false
	n := 0
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			n++
		}
	}
	return n
}
