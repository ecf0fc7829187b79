package udxml

import (
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/ledger"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
)

// Columns holds the record index of each ledger column.
type Columns struct {
	Name     int
	Debit    int
	Credit   int
	Center   int
	Contract int
	Activity int
}

// ResolveColumns locates the ledger columns in headers. Headers are compared
// folded, so case, accents and surrounding whitespace are ignored. When a
// folded header repeats, the last occurrence wins.
func ResolveColumns(headers []string) (Columns, error) {
	byFold := make(map[string]int, len(headers))
	for i, h := range headers {
		byFold[textenc.Fold(h)] = i
	}

	var cols Columns
	targets := []struct {
		name string
		dst  *int
	}{
		{ledger.ColName, &cols.Name},
		{ledger.ColDebit, &cols.Debit},
		{ledger.ColCredit, &cols.Credit},
		{ledger.ColCenter, &cols.Center},
		{ledger.ColContract, &cols.Contract},
		{ledger.ColActivity, &cols.Activity},
	}

	var missing []string
	for _, t := range targets {
		idx, ok := byFold[textenc.Fold(t.name)]
		if !ok {
			missing = append(missing, t.name)
			continue
		}
		*t.dst = idx
	}
	if len(missing) > 0 {
		present := make([]string, 0, len(byFold))
		for h := range byFold {
			present = append(present, h)
		}
		return Columns{}, errors.NewMissingColumnsError(missing, present)
	}
	return cols, nil
}
