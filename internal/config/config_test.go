package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Document defaults mirror the desktop form
	if cfg.Document.MandantID != "1" {
		t.Errorf("Document.MandantID = %q, want %q", cfg.Document.MandantID, "1")
	}
	if cfg.Document.DruhUD != "ID mzdy" {
		t.Errorf("Document.DruhUD = %q, want %q", cfg.Document.DruhUD, "ID mzdy")
	}
	if cfg.Document.TypUD != "I" {
		t.Errorf("Document.TypUD = %q, want %q", cfg.Document.TypUD, "I")
	}
	if cfg.Document.CisloUD != "" || cfg.Document.DatumUD != "" || cfg.Document.TextUD != "" {
		t.Errorf("per-document attributes should default to empty: %+v", cfg.Document)
	}

	if cfg.CSV.CleanedPrefix != "cleaned__" {
		t.Errorf("CSV.CleanedPrefix = %q, want %q", cfg.CSV.CleanedPrefix, "cleaned__")
	}
	if cfg.CSV.Delimiter != "" {
		t.Errorf("CSV.Delimiter = %q, want sniffing", cfg.CSV.Delimiter)
	}
	if cfg.XML.KeepEmpty {
		t.Error("XML.KeepEmpty should be false by default")
	}
	if cfg.Batch.MaxParallel != 4 {
		t.Errorf("Batch.MaxParallel = %d, want 4", cfg.Batch.MaxParallel)
	}
	if cfg.Watch.DebounceMs != 500 {
		t.Errorf("Watch.DebounceMs = %d, want 500", cfg.Watch.DebounceMs)
	}

	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("unexpected rotation defaults: %+v", cfg.Logging)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Default() should be valid, got %v", errs)
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	w := WatchConfig{DebounceMs: 250}
	if got := w.Debounce(); got != 250*time.Millisecond {
		t.Errorf("Debounce() = %v, want 250ms", got)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in     string
		want   rune
		wantOK bool
	}{
		{"", 0, true},
		{";", ';', true},
		{",", ',', true},
		{"|", '|', true},
		{"tab", '\t', true},
		{"TAB", '\t', true},
		{`\t`, '\t', true},
		{"\t", '\t', true},
		{";;", 0, false},
		{`"`, 0, false},
		{"\n", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDelimiter(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDelimiter(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	c := CSVConfig{Delimiter: "tab"}
	if c.DelimiterRune() != '\t' {
		t.Errorf("DelimiterRune() = %q, want tab", c.DelimiterRune())
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("XDG_CONFIG_HOME", func(t *testing.T) {
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)

		if got := ConfigDir(); got != filepath.Join(xdg, AppName) {
			t.Errorf("ConfigDir() = %q, want %q", got, filepath.Join(xdg, AppName))
		}
		if got := ConfigFile(); got != filepath.Join(xdg, AppName, "config.yaml") {
			t.Errorf("ConfigFile() = %q", got)
		}
		if got := LogFile(); got != filepath.Join(xdg, AppName, "konvertorxml.log") {
			t.Errorf("LogFile() = %q", got)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		if got := ConfigDir(); got != filepath.Join(home, ".config", AppName) {
			t.Errorf("ConfigDir() = %q", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Run("defaults round trip", func(t *testing.T) {
		viper.Reset()
		SetDefaults()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Document.DruhUD != "ID mzdy" || cfg.Batch.MaxParallel != 4 {
			t.Errorf("Load() = %+v", cfg)
		}
	})

	t.Run("file overrides", func(t *testing.T) {
		viper.Reset()
		SetDefaults()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "document:\n  druh_ud: ID ucto\n  cislo_ud: \"250901\"\ncsv:\n  delimiter: \";\"\nbatch:\n  max_parallel: 2\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig failed: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Document.DruhUD != "ID ucto" || cfg.Document.CisloUD != "250901" {
			t.Errorf("document = %+v", cfg.Document)
		}
		if cfg.Document.MandantID != "1" {
			t.Errorf("unset attribute should keep default, got %q", cfg.Document.MandantID)
		}
		if cfg.CSV.DelimiterRune() != ';' || cfg.Batch.MaxParallel != 2 {
			t.Errorf("csv/batch = %+v / %+v", cfg.CSV, cfg.Batch)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		viper.Reset()
		SetDefaults()
		viper.Set("batch.max_parallel", 0)
		viper.Set("logging.level", "verbose")

		_, err := Load()
		errs, ok := err.(ValidationErrors)
		if !ok {
			t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
		}
		if len(errs) != 2 {
			t.Errorf("expected 2 validation errors, got %d: %v", len(errs), errs)
		}

		if got := Get(); got.Batch.MaxParallel != 4 {
			t.Errorf("Get() should fall back to defaults, got %+v", got.Batch)
		}
	})
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(DefaultValues()) {
		t.Fatalf("Keys() has %d entries, DefaultValues() %d", len(keys), len(DefaultValues()))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Keys() not sorted at %d: %q >= %q", i, keys[i-1], keys[i])
		}
	}

	want := []string{"document.cislo_ud", "document.text_ud", "csv.delimiter", "watch.debounce_ms", "logging.compress"}
	values := DefaultValues()
	for _, k := range want {
		if _, ok := values[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if values["document.druh_ud"] != "ID mzdy" {
		t.Errorf("document.druh_ud default = %v", values["document.druh_ud"])
	}
}
