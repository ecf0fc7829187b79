package udxml

import (
	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/csvio"
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

// FallbackDelimiter is used when sniffing finds no consistent separator.
const FallbackDelimiter = ','

// Options control conversion.
type Options struct {
	// Delimiter forces the CSV separator. Zero means sniff.
	Delimiter rune
	// KeepEmpty writes blank attributes as empty strings instead of
	// omitting them.
	KeepEmpty bool
}

// Result summarizes a finished conversion.
type Result struct {
	Document Document
	XML      []byte
}

// Items returns the number of posting items written.
func (r *Result) Items() int { return len(r.Document.Items) }

// ReadRecords reads the CSV at path and splits it into the header row and
// the data records. Undecodable bytes are replaced rather than rejected.
func ReadRecords(fs afero.Fs, path string, delimiter rune) ([]string, [][]string, error) {
	table, err := csvio.Read(fs, path, csvio.ReadOptions{
		Candidates:       textenc.ConverterCandidates,
		Lossy:            true,
		Delimiter:        delimiter,
		Fallback:         FallbackDelimiter,
		TrimLeadingSpace: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(table.Rows) == 0 {
		return nil, nil, errors.ErrEmptyInput
	}
	return table.Rows[0], table.Rows[1:], nil
}

// Convert reads the CSV at in and renders the posting document for it.
func Convert(fs afero.Fs, in string, h Header, opts Options) (*Result, error) {
	headers, records, err := ReadRecords(fs, in, opts.Delimiter)
	if err != nil {
		return nil, errors.NewConvertError("read CSV", err).WithFile(in)
	}
	cols, err := ResolveColumns(headers)
	if err != nil {
		return nil, errors.NewConvertError("resolve columns", err).WithFile(in)
	}

	doc := Build(h, records, cols)
	if err := doc.CheckChars(); err != nil {
		return nil, errors.NewConvertError("check values", err).WithFile(in)
	}
	return &Result{Document: doc, XML: Render(doc, opts.KeepEmpty)}, nil
}

// ConvertFile converts in and writes the XML to out atomically as UTF-8.
func ConvertFile(fs afero.Fs, in, out string, h Header, opts Options) (*Result, error) {
	res, err := Convert(fs, in, h, opts)
	if err != nil {
		return nil, err
	}
	if err := util.WriteFileAtomic(fs, out, res.XML, 0644); err != nil {
		return nil, errors.NewConvertError("write XML", err).WithFile(in).WithOutput(out)
	}
	return res, nil
}
