package pipeline

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/filelock"
	"github.com/konvertorxml/konvertorxml/internal/textenc"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

var testHeader = udxml.Header{
	CisloUD:   "250901",
	DatumUD:   "30.09.2025",
	MandantID: "1",
	DruhUD:    "ID mzdy",
	TypUD:     "I",
	TextUD:    "Mzdy 09/2025",
}

const rawExport = "Mzdová rekapitulácia;;\r\n" +
	"Názov;Účet MD;Účet Dal;Stred.;Zák.;Činn.\r\n" +
	"Mzdy;521;331;10;20;1 000,50\r\n" +
	"Odvody;524;336;;;234,50\r\n" +
	"Vypracoval: Novák;;;;;\r\n"

// The cleaner matches the header case-sensitively, the fallback does not.
const upperExport = "Firma s.r.o.\n" +
	"NÁZOV;ÚČET MD;ÚČET DAL;STRED.;ZÁK.;ČINN.\n" +
	"Mzdy;521;331;;;100\n"

type parsedItem struct {
	Suma   string `xml:"suma,attr"`
	Ucet   string `xml:"ucet,attr"`
	Strana string `xml:"strana,attr"`
}

type parsedDoc struct {
	Doklad struct {
		CisloUD string       `xml:"cislo_ud,attr"`
		Items   []parsedItem `xml:"polozka_ud"`
	} `xml:"uctovny_doklad"`
}

func writeExport(t *testing.T, fs afero.Fs, path, text string, enc textenc.Encoding) {
	t.Helper()
	raw, err := textenc.Encode(text, enc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := afero.WriteFile(fs, path, raw, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func parseOutput(t *testing.T, fs afero.Fs, path string) parsedDoc {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	var doc parsedDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return doc
}

func TestRunner_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExport(t, fs, "/in/mzdy.csv", rawExport, textenc.Windows1250)

	r := NewRunner(fs, WithTempDir("/work"))
	res, err := r.Run(context.Background(), Job{Input: "/in/mzdy.csv", Output: "/out/mzdy.xml", Header: testHeader})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.UsedFallback {
		t.Error("cleaner succeeded, fallback should not be used")
	}
	if res.Items != 4 {
		t.Errorf("Items = %d, want 4", res.Items)
	}
	if res.Report.Encoding != textenc.Windows1250 || res.Report.SkippedPreamble != 1 || res.Report.Rows != 3 {
		t.Errorf("Report = %+v", res.Report)
	}

	doc := parseOutput(t, fs, "/out/mzdy.xml")
	if doc.Doklad.CisloUD != "250901" {
		t.Errorf("cislo_ud = %q", doc.Doklad.CisloUD)
	}
	var got []string
	for _, it := range doc.Doklad.Items {
		got = append(got, it.Strana+":"+it.Ucet+":"+it.Suma)
	}
	want := "M:521:1000.50 M:524:234.50 D:331:1000.50 D:336:234.50"
	if strings.Join(got, " ") != want {
		t.Errorf("items = %q, want %q", strings.Join(got, " "), want)
	}

	if !r.claims.IsAvailable("/out/mzdy.xml") {
		t.Error("output claim not released")
	}
	if tmp, _ := afero.Glob(fs, "/work/konvertorxml-*"); len(tmp) != 0 {
		t.Errorf("temporary directories left behind: %v", tmp)
	}
}

func TestRunner_Run_Fallback(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExport(t, fs, "/in/upper.csv", upperExport, textenc.UTF8)

	res, err := NewRunner(fs).Run(context.Background(), Job{Input: "/in/upper.csv", Output: "/out/upper.xml", Header: testHeader})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected header-search fallback")
	}
	if res.Items != 2 {
		t.Errorf("Items = %d, want 2", res.Items)
	}
	doc := parseOutput(t, fs, "/out/upper.xml")
	if len(doc.Doklad.Items) != 2 || doc.Doklad.Items[0].Suma != "100" {
		t.Errorf("items = %+v", doc.Doklad.Items)
	}
}

func TestRunner_Run_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeExport(t, fs, "/in/mzdy.csv", rawExport, textenc.UTF8)
	writeExport(t, fs, "/in/noheader.csv", "a;b;c\n1;2;3\n", textenc.UTF8)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	held := filelock.NewRegistry()
	_ = held.Claim("someone-else", "/out/held.xml")

	tests := []struct {
		name    string
		ctx     context.Context
		opts    []Option
		job     Job
		wantErr error
	}{
		{
			name:    "missing attributes",
			ctx:     context.Background(),
			job:     Job{Input: "/in/mzdy.csv", Output: "/out/a.xml", Header: udxml.Header{CisloUD: "1"}},
			wantErr: errors.ErrMissingAttributes,
		},
		{
			name:    "canceled context",
			ctx:     canceled,
			job:     Job{Input: "/in/mzdy.csv", Output: "/out/b.xml", Header: testHeader},
			wantErr: context.Canceled,
		},
		{
			name:    "no header anywhere",
			ctx:     context.Background(),
			job:     Job{Input: "/in/noheader.csv", Output: "/out/c.xml", Header: testHeader},
			wantErr: errors.ErrHeaderNotFound,
		},
		{
			name:    "missing input",
			ctx:     context.Background(),
			job:     Job{Input: "/in/none.csv", Output: "/out/d.xml", Header: testHeader},
			wantErr: &errors.CleanError{},
		},
		{
			name:    "output claimed by another job",
			ctx:     context.Background(),
			opts:    []Option{WithClaims(held)},
			job:     Job{Input: "/in/mzdy.csv", Output: "/out/held.xml", Header: testHeader},
			wantErr: errors.ErrAlreadyClaimed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(fs, tt.opts...).Run(tt.ctx, tt.job)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() = %v, want %v", err, tt.wantErr)
			}
			if ok, _ := afero.Exists(fs, tt.job.Output); ok {
				t.Errorf("output %s written despite error", tt.job.Output)
			}
		})
	}
}

func TestRunner_Run_CanceledIsErrCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(afero.NewMemMapFs()).Run(ctx, Job{Header: testHeader})
	if !errors.Is(err, errors.ErrCanceled) {
		t.Errorf("Run() = %v, want ErrCanceled", err)
	}
}
