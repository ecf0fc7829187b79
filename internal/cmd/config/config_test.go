package config

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/spf13/viper"

	appconfig "github.com/konvertorxml/konvertorxml/internal/config"
)

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	appconfig.SetDefaults()
	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	configCmd.SetOut(buf)
	configCmd.SetErr(buf)
	configCmd.SetArgs(args)
	err := configCmd.Execute()
	return buf.String(), err
}

func TestKeyTypesCoverDefaults(t *testing.T) {
	for _, key := range appconfig.Keys() {
		if _, ok := keyTypes[key]; !ok {
			t.Errorf("config set does not accept %q", key)
		}
	}
	if len(keyTypes) != len(appconfig.Keys()) {
		t.Errorf("keyTypes has %d keys, defaults %d", len(keyTypes), len(appconfig.Keys()))
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"document.druh_ud", "ID ucto", "ID ucto", false},
		{"csv.delimiter", "tab", "tab", false},
		{"csv.delimiter", ";", ";", false},
		{"csv.delimiter", ";;", nil, true},
		{"xml.keep_empty", "true", true, false},
		{"xml.keep_empty", "yes", nil, true},
		{"batch.max_parallel", "8", 8, false},
		{"batch.max_parallel", "0", nil, true},
		{"watch.debounce_ms", "0", 0, false},
		{"watch.debounce_ms", "-1", nil, true},
		{"logging.level", "WARN", "warn", false},
		{"logging.level", "verbose", nil, true},
		{"tui.theme", "dark", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := parseValue(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	setup(t)

	out, err := execute(t, "set", "batch.max_parallel", "8")
	if err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if !strings.Contains(out, "Set batch.max_parallel = 8") {
		t.Errorf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(appconfig.ConfigFile())
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "max_parallel: 8") {
		t.Errorf("config file = %s", data)
	}

	if _, err := execute(t, "set", "nope.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigReset(t *testing.T) {
	setup(t)
	viper.Set("batch.max_parallel", 9)
	viper.Set("document.druh_ud", "ID ucto")

	out, err := execute(t, "reset", "batch.max_parallel")
	if err != nil {
		t.Fatalf("config reset failed: %v", err)
	}
	if !strings.Contains(out, "Reset batch.max_parallel to default: 4") {
		t.Errorf("unexpected output: %q", out)
	}
	if viper.GetString("document.druh_ud") != "ID ucto" {
		t.Error("reset of one key changed another")
	}

	if _, err := execute(t, "reset"); err != nil {
		t.Fatalf("config reset failed: %v", err)
	}
	if viper.GetString("document.druh_ud") != "ID mzdy" {
		t.Errorf("document.druh_ud = %q after full reset", viper.GetString("document.druh_ud"))
	}

	if _, err := execute(t, "reset", "nope.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigInit(t *testing.T) {
	setup(t)

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	// The template must load and match the defaults.
	viper.SetConfigFile(appconfig.ConfigFile())
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("template is not valid YAML: %v", err)
	}
	cfg, err := appconfig.Load()
	if err != nil {
		t.Fatalf("template does not validate: %v", err)
	}
	if *cfg != *appconfig.Default() {
		t.Errorf("template = %+v, want defaults %+v", *cfg, *appconfig.Default())
	}

	if _, err := execute(t, "init"); err == nil {
		t.Error("expected error when config file exists")
	}
}

func TestConfigShowAndPath(t *testing.T) {
	setup(t)

	out, err := execute(t, "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"(none - using defaults)", `druh_ud: "ID mzdy"`, "max_parallel: 4", "debounce_ms: 500"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, appconfig.ConfigFile()) || !strings.Contains(out, "KONVERTORXML_") {
		t.Errorf("path output:\n%s", out)
	}
}

func TestConfigEdit(t *testing.T) {
	setup(t)
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")

	origLookPath, origCommand := execLookPath, execCommand
	t.Cleanup(func() {
		execLookPath = origLookPath
		execCommand = origCommand
	})

	var gotEditor, gotFile string
	execLookPath = func(file string) (string, error) {
		if file == "nano" {
			return "/usr/bin/nano", nil
		}
		return "", exec.ErrNotFound
	}
	execCommand = func(name string, arg ...string) *exec.Cmd {
		gotEditor = name
		gotFile = arg[0]
		return exec.Command("true")
	}

	if _, err := execute(t, "edit"); err != nil {
		t.Fatalf("config edit failed: %v", err)
	}
	if gotEditor != "nano" || gotFile != appconfig.ConfigFile() {
		t.Errorf("editor = %q %q", gotEditor, gotFile)
	}
	if _, err := os.Stat(appconfig.ConfigFile()); err != nil {
		t.Errorf("edit should create the config file first: %v", err)
	}
}

func TestConfigEdit_NoEditor(t *testing.T) {
	setup(t)
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")

	origLookPath := execLookPath
	t.Cleanup(func() { execLookPath = origLookPath })
	execLookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	if _, err := execute(t, "edit"); err == nil || !strings.Contains(err.Error(), "no editor found") {
		t.Errorf("config edit error = %v", err)
	}
}
