package textenc

import (
	"bytes"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		raw        []byte
		candidates []Encoding
		want       Encoding
		wantOK     bool
	}{
		{
			name:       "plain ascii is utf-8-sig first",
			raw:        []byte("Názov;Účet MD"),
			candidates: CleanerCandidates,
			want:       UTF8BOM,
			wantOK:     true,
		},
		{
			name:       "bom prefixed utf-8",
			raw:        append([]byte{0xEF, 0xBB, 0xBF}, []byte("Názov")...),
			candidates: ConverterCandidates,
			want:       UTF8BOM,
			wantOK:     true,
		},
		{
			name:       "windows-1250 bytes",
			raw:        []byte{0xDA, 0xE8, 'e', 't'}, // "Účet"
			candidates: CleanerCandidates,
			want:       Windows1250,
			wantOK:     true,
		},
		{
			name:       "undefined cp1250 byte falls to latin-1",
			raw:        []byte{0xDA, 0x81},
			candidates: CleanerCandidates,
			want:       Latin1,
			wantOK:     true,
		},
		{
			name:       "undefined cp1250 byte with converter candidates",
			raw:        []byte{0xDA, 0x81},
			candidates: ConverterCandidates,
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.raw, tt.candidates...)
			if ok != tt.wantOK {
				t.Fatalf("Detect() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("windows-1250", func(t *testing.T) {
		got, err := Decode([]byte{0xDA, 0xE8, 'e', 't'}, Windows1250)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got != "Účet" {
			t.Errorf("Decode() = %q, want %q", got, "Účet")
		}
	})

	t.Run("bom is stripped", func(t *testing.T) {
		got, err := Decode(append([]byte{0xEF, 0xBB, 0xBF}, 'a', 'b'), UTF8BOM)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got != "ab" {
			t.Errorf("Decode() = %q, want %q", got, "ab")
		}
	})

	t.Run("invalid utf-8 rejected", func(t *testing.T) {
		if _, err := Decode([]byte{0xFF, 0xFE}, UTF8); err == nil {
			t.Error("expected error for invalid utf-8")
		}
	})
}

func TestDecodeLossy(t *testing.T) {
	text, enc := DecodeLossy([]byte{'a', 0x81, 'b'}, ConverterCandidates...)
	if enc != UTF8 {
		t.Errorf("encoding = %q, want %q", enc, UTF8)
	}
	if text != "a\uFFFDb" {
		t.Errorf("text = %q, want replacement character", text)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	const text = "Názov;Účet MD;Zák.;Činn."

	for _, enc := range []Encoding{UTF8, Windows1250} {
		t.Run(string(enc), func(t *testing.T) {
			raw, err := Encode(text, enc)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := Decode(raw, enc)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != text {
				t.Errorf("round trip = %q, want %q", got, text)
			}
		})
	}

	t.Run("utf-8-sig writes bom", func(t *testing.T) {
		raw, err := Encode(text, UTF8BOM)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
			t.Error("expected BOM prefix")
		}
	})

	t.Run("latin-1 cannot encode č", func(t *testing.T) {
		if _, err := Encode("č", Latin1); err == nil {
			t.Error("expected error encoding č as latin-1")
		}
	})
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Názov", "nazov"},
		{" Účet MD ", "ucet md"},
		{"Účet Dal", "ucet dal"},
		{"Stred.", "stred."},
		{"Zák.", "zak."},
		{"Činn.", "cinn."},
		{"\u00a0Činn.\u00a0", "cinn."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	if got := CleanCell("\u00a0 12\u00a0345 "); got != "12 345" {
		t.Errorf("CleanCell() = %q, want %q", got, "12 345")
	}
}
