// Package textenc detects and converts the text encodings ledger exports
// arrive in, and folds header names for accent-insensitive matching.
package textenc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Encoding names a supported text encoding. Values match the names users
// see in reports and may put in configuration.
type Encoding string

const (
	UTF8BOM     Encoding = "utf-8-sig"
	UTF8        Encoding = "utf-8"
	Windows1250 Encoding = "cp1250"
	Latin1      Encoding = "latin-1"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Candidate lists, in detection order.
var (
	// CleanerCandidates is used when cleaning raw exports. Latin-1 accepts
	// any byte sequence, so detection with this list never fails.
	CleanerCandidates = []Encoding{UTF8BOM, Windows1250, Latin1}
	// ConverterCandidates is used when reading cleaned CSV for conversion.
	ConverterCandidates = []Encoding{UTF8BOM, UTF8, Windows1250}
)

// Bytes Windows-1250 leaves unassigned. The WHATWG tables behind x/text map
// them to C1 controls, which would let binary garbage pass as cp1250.
var undefined1250 = [256]bool{0x81: true, 0x83: true, 0x88: true, 0x90: true, 0x98: true}

// Valid reports whether raw decodes cleanly in enc.
func (e Encoding) Valid(raw []byte) bool {
	switch e {
	case UTF8BOM:
		return utf8.Valid(bytes.TrimPrefix(raw, bom))
	case UTF8:
		return utf8.Valid(raw)
	case Windows1250:
		for _, b := range raw {
			if undefined1250[b] {
				return false
			}
		}
		return true
	case Latin1:
		return true
	default:
		return false
	}
}

// Detect returns the first candidate that decodes raw without error.
func Detect(raw []byte, candidates ...Encoding) (Encoding, bool) {
	for _, enc := range candidates {
		if enc.Valid(raw) {
			return enc, true
		}
	}
	return "", false
}

// Decode converts raw bytes in enc to a Go string.
func Decode(raw []byte, enc Encoding) (string, error) {
	if !enc.Valid(raw) {
		return "", fmt.Errorf("input is not valid %s", enc)
	}
	switch enc {
	case UTF8BOM:
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case UTF8:
		return string(raw), nil
	case Windows1250:
		out, err := charmap.Windows1250.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case Latin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unsupported encoding %q", enc)
}

// DecodeLossy detects the encoding among candidates and decodes with it.
// When nothing matches, raw is read as UTF-8 with invalid sequences replaced
// by U+FFFD and the returned encoding is UTF8.
func DecodeLossy(raw []byte, candidates ...Encoding) (string, Encoding) {
	if enc, ok := Detect(raw, candidates...); ok {
		if text, err := Decode(raw, enc); err == nil {
			return text, enc
		}
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), UTF8
}

// Encode converts text to bytes in enc. Runes the target charmap cannot
// represent produce an error.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8BOM:
		return unicode.UTF8BOM.NewEncoder().Bytes([]byte(text))
	case UTF8:
		return []byte(text), nil
	case Windows1250:
		return charmap.Windows1250.NewEncoder().Bytes([]byte(text))
	case Latin1:
		return charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// Fold lowercases s, strips surrounding whitespace and drops diacritics and
// any other non-ASCII rune after compatibility decomposition.
// "Účet MD" folds to "ucet md".
func Fold(s string) string {
	s = norm.NFKD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < utf8.RuneSelf {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// CleanCell replaces non-breaking spaces with plain spaces and trims.
func CleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}
