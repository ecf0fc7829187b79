package udxml

import (
	"encoding/xml"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
)

var sampleHeader = Header{
	CisloUD:   "250901",
	DatumUD:   "30.09.2025",
	MandantID: "1",
	DruhUD:    "ID mzdy",
	TypUD:     "I",
	TextUD:    "Zaúčtovanie miezd",
}

const sampleCSV = "Názov;Účet MD;Účet Dal;Stred.;Zák.;Činn.\r\n" +
	"Mzdy;521;331;10;20;1 000,50\r\n" +
	"Odvody;524;336;;;234.5\r\n"

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 234,50", "1234.50"},
		{" 12,5 ", "12.5"},
		{"1.234,50", "1.234,50"},
		{"1,234,50", "1,234,50"},
		{"99", "99"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeAmount(tt.in); got != tt.want {
				t.Errorf("NormalizeAmount(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHeader(t *testing.T) {
	var h Header
	if !h.Set(AttrDruhUD, "ID mzdy") {
		t.Fatal("Set rejected a known attribute")
	}
	if h.Set("unknown", "x") {
		t.Error("Set accepted an unknown attribute")
	}
	if h.Get(AttrDruhUD) != "ID mzdy" || h.Get("unknown") != "" {
		t.Errorf("unexpected Get results: %+v", h)
	}

	h.CisloUD = "  "
	want := []string{AttrCisloUD, AttrDatumUD, AttrMandantID, AttrTypUD, AttrTextUD}
	if got := h.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}

	err := h.Validate()
	if !errors.Is(err, errors.ErrMissingAttributes) {
		t.Errorf("Validate() = %v, want ErrMissingAttributes", err)
	}
	if sampleHeader.Validate() != nil {
		t.Error("complete header should validate")
	}

	merged := Header{CisloUD: "7"}.Merge(sampleHeader)
	if merged.CisloUD != "7" || merged.TypUD != "I" {
		t.Errorf("Merge() = %+v", merged)
	}

	names := make([]string, 0, 6)
	for _, a := range sampleHeader.Attrs() {
		names = append(names, a.Name)
	}
	if !reflect.DeepEqual(names, HeaderAttrs) {
		t.Errorf("Attrs() order = %v", names)
	}
}

func TestResolveColumns(t *testing.T) {
	t.Run("folded and reordered", func(t *testing.T) {
		cols, err := ResolveColumns([]string{"cinn.", " UCET DAL", "Účet MD", "nazov", "Zák.", "Stred."})
		if err != nil {
			t.Fatalf("ResolveColumns failed: %v", err)
		}
		want := Columns{Name: 3, Debit: 2, Credit: 1, Center: 5, Contract: 4, Activity: 0}
		if cols != want {
			t.Errorf("ResolveColumns() = %+v, want %+v", cols, want)
		}
	})

	t.Run("last duplicate wins", func(t *testing.T) {
		cols, err := ResolveColumns([]string{"Názov", "Účet MD", "Účet Dal", "Stred.", "Zák.", "Činn.", "Nazov"})
		if err != nil {
			t.Fatalf("ResolveColumns failed: %v", err)
		}
		if cols.Name != 6 {
			t.Errorf("Name = %d, want 6", cols.Name)
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := ResolveColumns([]string{"Názov", "Účet MD", "Suma"})
		if !errors.Is(err, errors.ErrMissingColumns) {
			t.Fatalf("expected ErrMissingColumns, got %v", err)
		}
		var mce *errors.MissingColumnsError
		if !errors.As(err, &mce) {
			t.Fatalf("expected *MissingColumnsError, got %T", err)
		}
		if !reflect.DeepEqual(mce.Missing, []string{"Účet Dal", "Stred.", "Zák.", "Činn."}) {
			t.Errorf("Missing = %v", mce.Missing)
		}
		if !reflect.DeepEqual(mce.Present, []string{"nazov", "suma", "ucet md"}) {
			t.Errorf("Present = %v", mce.Present)
		}
	})
}

func TestBuild_DebitsThenCredits(t *testing.T) {
	cols := Columns{Name: 0, Debit: 1, Credit: 2, Center: 3, Contract: 4, Activity: 5}
	records := [][]string{
		{"A", "521", "331", "10", "", "1,5"},
		{"B", "524", "336"},
	}
	doc := Build(sampleHeader, records, cols)

	want := []Item{
		{Amount: "1.5", Account: "521", Side: Debit, Center: "10", Text: "A"},
		{Amount: "", Account: "524", Side: Debit, Text: "B"},
		{Amount: "1.5", Account: "331", Side: Credit, Center: "10", Text: "A"},
		{Amount: "", Account: "336", Side: Credit, Text: "B"},
	}
	if !reflect.DeepEqual(doc.Items, want) {
		t.Errorf("Build() items:\n got %+v\nwant %+v", doc.Items, want)
	}
}

func TestRender(t *testing.T) {
	doc := Document{
		Header: Header{CisloUD: "1", DatumUD: " ", TextUD: `a & "b" <c>`},
		Items: []Item{
			{Amount: "10.5", Account: "521", Side: Debit, Text: "Mzdy"},
		},
	}

	got := string(Render(doc, false))
	want := `<?xml version="1.0"?>
<uctovne_doklady>
  <uctovny_doklad cislo_ud="1" text_ud="a &amp; &quot;b&quot; &lt;c&gt;">
    <polozka_ud suma="10.5" ucet="521" strana="M" text_pud="Mzdy"/>
  </uctovny_doklad>
</uctovne_doklady>
`
	if got != want {
		t.Errorf("Render():\n%s\nwant:\n%s", got, want)
	}

	kept := string(Render(doc, true))
	if !strings.Contains(kept, `datum_ud=""`) || !strings.Contains(kept, `os="" eo=""`) {
		t.Errorf("keepEmpty output missing empty attributes:\n%s", kept)
	}
}

func TestRender_NoItems(t *testing.T) {
	got := string(Render(Document{Header: Header{CisloUD: "1"}}, false))
	if !strings.Contains(got, "  <uctovny_doklad cislo_ud=\"1\"/>\n") {
		t.Errorf("expected self-closing document element:\n%s", got)
	}
}

type parsedDoc struct {
	Doklad struct {
		CisloUD string `xml:"cislo_ud,attr"`
		TextUD  string `xml:"text_ud,attr"`
		Items   []struct {
			Suma   string `xml:"suma,attr"`
			Ucet   string `xml:"ucet,attr"`
			Strana string `xml:"strana,attr"`
			Os     string `xml:"os,attr"`
			Text   string `xml:"text_pud,attr"`
		} `xml:"polozka_ud"`
	} `xml:"uctovny_doklad"`
}

func TestRender_ParsesBack(t *testing.T) {
	doc := Document{
		Header: sampleHeader,
		Items: []Item{
			{Amount: "1", Account: "521", Side: Debit, Text: "riadok\n2\ttab"},
		},
	}
	var parsed parsedDoc
	if err := xml.Unmarshal(Render(doc, false), &parsed); err != nil {
		t.Fatalf("output is not well-formed XML: %v", err)
	}
	if parsed.Doklad.TextUD != sampleHeader.TextUD {
		t.Errorf("text_ud = %q", parsed.Doklad.TextUD)
	}
	if got := parsed.Doklad.Items[0].Text; got != "riadok\n2\ttab" {
		t.Errorf("text_pud = %q, want control characters preserved", got)
	}
}

func TestConvertFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw, _ := textenc.Encode(sampleCSV, textenc.Windows1250)
	_ = afero.WriteFile(fs, "/in.csv", raw, 0644)

	res, err := ConvertFile(fs, "/in.csv", "/out.xml", sampleHeader, Options{})
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if res.Items() != 4 {
		t.Errorf("Items() = %d, want 4", res.Items())
	}

	data, err := afero.ReadFile(fs, "/out.xml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var parsed parsedDoc
	if err := xml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if parsed.Doklad.CisloUD != "250901" {
		t.Errorf("cislo_ud = %q", parsed.Doklad.CisloUD)
	}

	var got []string
	for _, it := range parsed.Doklad.Items {
		got = append(got, it.Strana+":"+it.Ucet+":"+it.Suma+":"+it.Os)
	}
	want := []string{"M:521:1000.50:10", "M:524:234.5:", "D:331:1000.50:10", "D:336:234.5:"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	if parsed.Doklad.Items[0].Text != "Mzdy" {
		t.Errorf("text_pud = %q", parsed.Doklad.Items[0].Text)
	}
}

func TestConvert_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/empty.csv", nil, 0644)
	_ = afero.WriteFile(fs, "/cols.csv", []byte("a,b\n1,2\n"), 0644)
	_ = afero.WriteFile(fs, "/ctrl.csv", []byte("Názov;Účet MD;Účet Dal;Stred.;Zák.;Činn.\nMzdy\x01;521;331;10;20;100\n"), 0644)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty file", "/empty.csv", errors.ErrEmptyInput},
		{"missing columns", "/cols.csv", errors.ErrMissingColumns},
		{"control character", "/ctrl.csv", errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(fs, tt.path, sampleHeader, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert() error = %v, want %v", err, tt.want)
			}
			var ce *errors.ConvertError
			if !errors.As(err, &ce) {
				t.Errorf("expected *ConvertError, got %T", err)
			}
		})
	}
}

func TestDocument_CheckChars(t *testing.T) {
	withText := func(text string) Document {
		return Document{Header: sampleHeader, Items: []Item{{Amount: "1", Side: Debit, Text: text}}}
	}
	badHeader := sampleHeader
	badHeader.TextUD = "Mzdy\x0b"

	tests := []struct {
		name      string
		doc       Document
		wantField string
	}{
		{"plain", withText("Mzdy"), ""},
		{"tab and replacement character", withText("Mzdy\t\uFFFD 😀"), ""},
		{"control character in item", withText("Mzdy\x01"), "text_pud"},
		{"control character in header", Document{Header: badHeader}, "text_ud"},
		{"noncharacter", withText("\uFFFE"), "text_pud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.CheckChars()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("CheckChars() = %v, want nil", err)
				}
				return
			}
			var ve *errors.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("CheckChars() = %v, want ValidationError on %s", err, tt.wantField)
			}
		})
	}
}

func TestReadRecords_ForcedDelimiter(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/in.csv", []byte("a|b; c\n1|2; 3\n"), 0644)

	headers, records, err := ReadRecords(fs, "/in.csv", ';')
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if !reflect.DeepEqual(headers, []string{"a|b", "c"}) {
		t.Errorf("headers = %q", headers)
	}
	if len(records) != 1 || records[0][1] != "3" {
		t.Errorf("records = %q", records)
	}
}
