package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"owlsync/internal/application"
	"owlsync/internal/domain"
)

// isolate keeps the user's own config and environment out of a test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OWLSYNC_CONFIG", "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_PlatformDefaults(t *testing.T) {
	tests := []struct {
		goos     string
		platform domain.Platform
		enabled  []domain.PluginFormat
		vst3Dir  string
	}{
		{
			goos:     "linux",
			platform: domain.PlatformLinux,
			enabled:  []domain.PluginFormat{domain.FormatVST3, domain.FormatVST2},
			vst3Dir:  "/usr/lib/vst3",
		},
		{
			goos:     "darwin",
			platform: domain.PlatformMacOS,
			enabled:  []domain.PluginFormat{domain.FormatVST3, domain.FormatVST2, domain.FormatAU},
			vst3Dir:  "/Library/Audio/Plug-ins/VST3",
		},
		{
			goos:     "windows",
			platform: domain.PlatformWindows,
			enabled:  []domain.PluginFormat{domain.FormatVST3, domain.FormatVST2},
			vst3Dir:  "C:/Program Files/Common Files/VST3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			isolate(t)

			cfg, err := Load(WithGOOS(tt.goos))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			scan := cfg.ToScanConfig()
			if scan.Platform != tt.platform {
				t.Errorf("Platform = %s, want %s", scan.Platform, tt.platform)
			}
			got := scan.EnabledFormats()
			if len(got) != len(tt.enabled) {
				t.Fatalf("EnabledFormats() = %v, want %v", got, tt.enabled)
			}
			for i := range got {
				if got[i] != tt.enabled[i] {
					t.Errorf("EnabledFormats() = %v, want %v", got, tt.enabled)
				}
			}
			if scan.Formats[domain.FormatVST3].Directory != tt.vst3Dir {
				t.Errorf("vst3 directory = %q, want %q", scan.Formats[domain.FormatVST3].Directory, tt.vst3Dir)
			}
			if cfg.File != "" {
				t.Errorf("no config file expected, got %s", cfg.File)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(WithGOOS("linux"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if cfg.Native.Enabled {
		t.Error("native discovery should be off by default")
	}
	if cfg.Native.Concurrency != 1 || cfg.Native.Timeout != 30*time.Second {
		t.Errorf("native defaults = %+v", cfg.Native)
	}
	if cfg.Scan.Differential {
		t.Error("differential should be off by default")
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
database: /tmp/owl.db
log:
  level: debug
native:
  enabled: true
  timeout: 5s
  concurrency: 4
scan:
  platform: linux
  differential: true
  formats:
    lv2:
      enabled: true
      directory: /opt/lv2
      extra_directories: [/home/me/.lv2]
    vst2:
      enabled: false
`)

	cfg, err := Load(WithFile(path), WithGOOS("linux"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if cfg.Database != "/tmp/owl.db" || cfg.Log.Level != "debug" {
		t.Errorf("top-level values not read: %+v", cfg)
	}
	if !cfg.Native.Enabled || cfg.Native.Timeout != 5*time.Second || cfg.Native.Concurrency != 4 {
		t.Errorf("native = %+v", cfg.Native)
	}

	scan := cfg.ToScanConfig()
	if !scan.Differential {
		t.Error("differential not read")
	}
	lv2 := scan.Formats[domain.FormatLV2]
	if !lv2.Enabled || lv2.Directory != "/opt/lv2" || len(lv2.ExtraDirectories) != 1 {
		t.Errorf("lv2 = %+v", lv2)
	}
	if scan.FormatEnabled(domain.FormatVST2) {
		t.Error("vst2 should be disabled by the file")
	}
	if !scan.FormatEnabled(domain.FormatVST3) {
		t.Error("vst3 default should survive a partial formats section")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "log:\n  level: debug\n")
	t.Setenv("OWLSYNC_LOG_LEVEL", "warn")
	t.Setenv("OWLSYNC_SCAN_FORMATS_VST3_DIRECTORY", "/env/vst3")
	t.Setenv("OWLSYNC_NATIVE_ENABLED", "true")

	cfg, err := Load(WithFile(path), WithGOOS("linux"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if !cfg.Native.Enabled {
		t.Error("OWLSYNC_NATIVE_ENABLED not applied")
	}
	if got := cfg.ToScanConfig().Formats[domain.FormatVST3].Directory; got != "/env/vst3" {
		t.Errorf("vst3 directory = %q, want /env/vst3", got)
	}
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "database: /from/env.db\n")
	t.Setenv("OWLSYNC_CONFIG", path)

	cfg, err := Load(WithGOOS("linux"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database != "/from/env.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
}

func TestLoad_FlagsOverride(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "scan:\n  directory_scope: /from/file\n")

	fs := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	fs.String("scope", "", "")
	fs.Bool("differential", false, "")
	fs.Bool("lv2", false, "")
	fs.Int("concurrency", 1, "")
	if err := fs.Parse([]string{"--differential", "--lv2"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(WithFile(path), WithFlags(fs), WithGOOS("linux"))
	if err != nil {
		t.Fatal(err)
	}

	scan := cfg.ToScanConfig()
	if !scan.Differential || !scan.FormatEnabled(domain.FormatLV2) {
		t.Errorf("set flags not applied: %+v", scan)
	}
	if scan.DirectoryScope != "/from/file" {
		t.Errorf("unset --scope overrode the file: %q", scan.DirectoryScope)
	}
	if cfg.Native.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Native.Concurrency)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "unknown log level",
			body:      "log:\n  level: chatty\n",
			wantField: "log.Level",
		},
		{
			name:      "concurrency too high",
			body:      "native:\n  concurrency: 64\n",
			wantField: "native.Concurrency",
		},
		{
			name:      "unknown platform",
			body:      "scan:\n  platform: beos\n",
			wantField: "scan.Platform",
		},
		{
			name:      "unknown format",
			body:      "scan:\n  formats:\n    aax:\n      enabled: true\n",
			wantField: "scan.formats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(WithFile(writeConfig(t, tt.body)), WithGOOS("linux"))

			var cfgErr *application.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	if err == nil {
		t.Error("a missing explicit config file should fail")
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "owlsync", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "concurrency") {
		t.Errorf("defaults not written:\n%s", data)
	}

	cfg, err := Load(WithFile(path))
	if err != nil {
		t.Fatalf("written defaults do not load: %v", err)
	}
	if cfg.Native.Concurrency != 1 {
		t.Errorf("Concurrency = %d", cfg.Native.Concurrency)
	}

	// existing files are left alone
	if err := os.WriteFile(path, []byte("database: /keep.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "database: /keep.db\n" {
		t.Errorf("existing config overwritten: %s", data)
	}
}

func TestNativeConfig_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NativeConfig{Binary: "scanner", Timeout: 5 * time.Second, Concurrency: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"enabled":false,"binary":"scanner","concurrency":2,"timeout":"5s"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
