// Package udxml builds <uctovne_doklady> posting documents from cleaned
// ledger tables.
//
// Each ledger row yields two posting items that share the amount, cost
// centre, contract and text: a debit item booked to the "Účet MD" account
// and a credit item booked to the "Účet Dal" account. All debit items are
// emitted first, followed by all credit items in the same row order.
package udxml

import (
	"strings"

	"github.com/konvertorxml/konvertorxml/internal/errors"
)

// Document attribute names, in output order.
const (
	AttrCisloUD   = "cislo_ud"
	AttrDatumUD   = "datum_ud"
	AttrMandantID = "mandant_id"
	AttrDruhUD    = "druh_ud"
	AttrTypUD     = "typ_ud"
	AttrTextUD    = "text_ud"
)

// HeaderAttrs lists the document attributes in output order.
var HeaderAttrs = []string{AttrCisloUD, AttrDatumUD, AttrMandantID, AttrDruhUD, AttrTypUD, AttrTextUD}

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Header holds the attributes of the <uctovny_doklad> element.
type Header struct {
	CisloUD   string `mapstructure:"cislo_ud" yaml:"cislo_ud"`
	DatumUD   string `mapstructure:"datum_ud" yaml:"datum_ud"`
	MandantID string `mapstructure:"mandant_id" yaml:"mandant_id"`
	DruhUD    string `mapstructure:"druh_ud" yaml:"druh_ud"`
	TypUD     string `mapstructure:"typ_ud" yaml:"typ_ud"`
	TextUD    string `mapstructure:"text_ud" yaml:"text_ud"`
}

func (h *Header) field(name string) *string {
	switch name {
	case AttrCisloUD:
		return &h.CisloUD
	case AttrDatumUD:
		return &h.DatumUD
	case AttrMandantID:
		return &h.MandantID
	case AttrDruhUD:
		return &h.DruhUD
	case AttrTypUD:
		return &h.TypUD
	case AttrTextUD:
		return &h.TextUD
	}
	return nil
}

// Get returns the value of the named attribute, or "" for unknown names.
func (h Header) Get(name string) string {
	if p := h.field(name); p != nil {
		return *p
	}
	return ""
}

// Set assigns the named attribute. It reports false for unknown names.
func (h *Header) Set(name, value string) bool {
	p := h.field(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Merge returns h with every blank attribute taken from defaults.
func (h Header) Merge(defaults Header) Header {
	for _, name := range HeaderAttrs {
		if strings.TrimSpace(h.Get(name)) == "" {
			h.Set(name, defaults.Get(name))
		}
	}
	return h
}

// Attrs returns the attributes in output order.
func (h Header) Attrs() []Attr {
	attrs := make([]Attr, len(HeaderAttrs))
	for i, name := range HeaderAttrs {
		attrs[i] = Attr{Name: name, Value: h.Get(name)}
	}
	return attrs
}

// Missing lists the attributes that are blank after trimming.
func (h Header) Missing() []string {
	var missing []string
	for _, name := range HeaderAttrs {
		if strings.TrimSpace(h.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Validate fails with a MissingAttributesError when any attribute is blank.
func (h Header) Validate() error {
	if missing := h.Missing(); len(missing) > 0 {
		return &errors.MissingAttributesError{Names: missing}
	}
	return nil
}

// Side is the posting side of an item.
type Side string

const (
	// Debit items book to the "Účet MD" account.
	Debit Side = "M"
	// Credit items book to the "Účet Dal" account.
	Credit Side = "D"
)

// Item is one <polozka_ud> element.
type Item struct {
	Amount   string
	Account  string
	Side     Side
	Center   string
	Contract string
	Text     string
}

// Attrs returns the item attributes in output order.
func (it Item) Attrs() []Attr {
	return []Attr{
		{Name: "suma", Value: it.Amount},
		{Name: "ucet", Value: it.Account},
		{Name: "strana", Value: string(it.Side)},
		{Name: "os", Value: it.Center},
		{Name: "eo", Value: it.Contract},
		{Name: "text_pud", Value: it.Text},
	}
}

// Document is a single posting document with its items.
type Document struct {
	Header Header
	Items  []Item
}

// NormalizeAmount trims v and removes its spaces. A single decimal comma
// becomes a dot when v has no dot.
func NormalizeAmount(v string) string {
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	if strings.Count(v, ",") == 1 && !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	return v
}

// Build turns records into a document: one debit item per record, then one
// credit item per record, both in record order.
func Build(h Header, records [][]string, cols Columns) Document {
	debits := make([]Item, 0, len(records))
	credits := make([]Item, 0, len(records))

	for _, rec := range records {
		base := Item{
			Amount:   NormalizeAmount(cell(rec, cols.Activity)),
			Center:   cell(rec, cols.Center),
			Contract: cell(rec, cols.Contract),
			Text:     cell(rec, cols.Name),
		}

		debit := base
		debit.Side = Debit
		debit.Account = cell(rec, cols.Debit)
		debits = append(debits, debit)

		credit := base
		credit.Side = Credit
		credit.Account = cell(rec, cols.Credit)
		credits = append(credits, credit)
	}

	return Document{Header: h, Items: append(debits, credits...)}
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
