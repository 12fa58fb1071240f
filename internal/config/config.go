// Package config loads owlsync settings from defaults, an optional YAML
// file, OWLSYNC_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"owlsync/internal/application"
	"owlsync/internal/domain"
)

// EnvPrefix prefixes every environment override (OWLSYNC_NATIVE_ENABLED...)
const EnvPrefix = "OWLSYNC"

// Config is the full owlsync configuration
type Config struct {
	Database string       `mapstructure:"database" json:"database"`
	Log      LogConfig    `mapstructure:"log" json:"log"`
	Native   NativeConfig `mapstructure:"native" json:"native"`
	Scan     ScanSettings `mapstructure:"scan" json:"scan"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-" json:"-"`
}

// LogConfig configures the zap logger and its optional rotating file
type LogConfig struct {
	Level      string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" json:"format" validate:"oneof=console json"`
	File       string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days" validate:"min=0"`
}

// NativeConfig configures the out-of-process native scanner
type NativeConfig struct {
	Enabled     bool          `mapstructure:"enabled" json:"enabled"`
	Binary      string        `mapstructure:"binary" json:"binary"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout" validate:"min=0"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency" validate:"min=1,max=16"`
}

// MarshalJSON writes the timeout as a duration string such as "30s"
func (n NativeConfig) MarshalJSON() ([]byte, error) {
	type plain NativeConfig
	return json.Marshal(struct {
		plain
		Timeout string `json:"timeout"`
	}{plain(n), n.Timeout.String()})
}

// ScanSettings is the file form of domain.ScanConfig. Formats are keyed by
// their lower-case name (vst2, vst3, au, lv2).
type ScanSettings struct {
	Platform       string                         `mapstructure:"platform" json:"platform" validate:"oneof=windows macos linux"`
	Differential   bool                           `mapstructure:"differential" json:"differential"`
	DirectoryScope string                         `mapstructure:"directory_scope" json:"directory_scope,omitempty"`
	Formats        map[string]domain.FormatConfig `mapstructure:"formats" json:"formats"`
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"database":       "database",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
	"native":         "native.enabled",
	"scanner":        "native.binary",
	"native-timeout": "native.timeout",
	"concurrency":    "native.concurrency",
	"platform":       "scan.platform",
	"differential":   "scan.differential",
	"scope":          "scan.directory_scope",
	"vst2":           "scan.formats.vst2.enabled",
	"vst3":           "scan.formats.vst3.enabled",
	"au":             "scan.formats.au.enabled",
	"lv2":            "scan.formats.lv2.enabled",
}

type loadOptions struct {
	file  string
	flags *pflag.FlagSet
	goos  string
}

// LoadOption configures Load
type LoadOption func(*loadOptions)

// WithFile reads this config file instead of searching the default locations.
// A file named explicitly must exist.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithFlags binds known flags of fs as overrides. Only flags the user
// actually set take effect.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) {
		o.flags = fs
	}
}

// WithGOOS picks the platform defaults for goos instead of runtime.GOOS
func WithGOOS(goos string) LoadOption {
	return func(o *loadOptions) {
		o.goos = goos
	}
}

// Load reads and validates the configuration
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{goos: runtime.GOOS}
	for _, opt := range opts {
		opt(&o)
	}
	if o.file == "" {
		o.file = os.Getenv(EnvPrefix + "_CONFIG")
	}

	v := viper.New()
	setDefaults(v, domain.PlatformFromGOOS(o.goos))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readFile(v, o.file); err != nil {
		return nil, err
	}

	if o.flags != nil {
		for name, key := range flagKeys {
			f := o.flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &application.ConfigurationError{Field: "config", Message: err.Error()}
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Database = expandHome(cfg.Database)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(expandHome(file))
		if err := v.ReadInConfig(); err != nil {
			return &application.ConfigurationError{Field: "config", Message: err.Error()}
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &application.ConfigurationError{Field: "config", Message: err.Error()}
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, platform domain.Platform) {
	v.SetDefault("database", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("native.enabled", false)
	v.SetDefault("native.binary", "owlplug-scanner")
	v.SetDefault("native.timeout", 30*time.Second)
	v.SetDefault("native.concurrency", 1)

	v.SetDefault("scan.platform", string(platform))
	v.SetDefault("scan.differential", false)
	v.SetDefault("scan.directory_scope", "")

	dirs := DefaultDirectories(platform)
	for _, f := range domain.Formats {
		prefix := "scan.formats." + f.String()
		v.SetDefault(prefix+".enabled", defaultEnabled(platform, f))
		v.SetDefault(prefix+".directory", dirs[f])
		v.SetDefault(prefix+".extra_directories", []string{})
	}
}

// DefaultDirectories returns the conventional plugin directory of each
// format on a platform
func DefaultDirectories(platform domain.Platform) map[domain.PluginFormat]string {
	switch platform {
	case domain.PlatformWindows:
		return map[domain.PluginFormat]string{
			domain.FormatVST2: "C:/Program Files/VSTPlugins",
			domain.FormatVST3: "C:/Program Files/Common Files/VST3",
			domain.FormatLV2:  "C:/Program Files/Common Files/LV2",
		}
	case domain.PlatformMacOS:
		return map[domain.PluginFormat]string{
			domain.FormatVST2: "/Library/Audio/Plug-ins/VST",
			domain.FormatVST3: "/Library/Audio/Plug-ins/VST3",
			domain.FormatAU:   "/Library/Audio/Plug-ins/Components",
			domain.FormatLV2:  "/Library/Audio/Plug-ins/LV2",
		}
	default:
		return map[domain.PluginFormat]string{
			domain.FormatVST2: "/usr/lib/vst",
			domain.FormatVST3: "/usr/lib/vst3",
			domain.FormatLV2:  "/usr/lib/lv2",
		}
	}
}

// AU only exists on macOS; LV2 is opt-in
func defaultEnabled(platform domain.Platform, f domain.PluginFormat) bool {
	switch f {
	case domain.FormatVST2, domain.FormatVST3:
		return true
	case domain.FormatAU:
		return platform == domain.PlatformMacOS
	}
	return false
}

// Validate checks struct tags and format names
func (c *Config) Validate() error {
	if err := application.ValidateStruct(c); err != nil {
		return err
	}
	for name := range c.Scan.Formats {
		if _, ok := domain.ParsePluginFormat(name); !ok {
			return &application.ConfigurationError{
				Field:   "scan.formats",
				Message: fmt.Sprintf("unknown plugin format: %s", name),
			}
		}
	}
	return nil
}

// ToScanConfig converts the scan settings for a sync run
func (c *Config) ToScanConfig() domain.ScanConfig {
	formats := make(map[domain.PluginFormat]domain.FormatConfig, len(c.Scan.Formats))
	for name, fc := range c.Scan.Formats {
		f, ok := domain.ParsePluginFormat(name)
		if !ok {
			continue
		}
		fc.Directory = expandHome(fc.Directory)
		extra := make([]string, 0, len(fc.ExtraDirectories))
		for _, d := range fc.ExtraDirectories {
			extra = append(extra, expandHome(d))
		}
		fc.ExtraDirectories = extra
		formats[f] = fc
	}

	return domain.ScanConfig{
		DirectoryScope: expandHome(c.Scan.DirectoryScope),
		Differential:   c.Scan.Differential,
		Platform:       domain.Platform(c.Scan.Platform),
		Formats:        formats,
	}
}

// DefaultDir returns the directory searched for config.yaml
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "owlsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "owlsync")
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// WriteDefault writes a config file holding the defaults of the current
// platform unless path already exists
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, domain.PlatformFromGOOS(runtime.GOOS))
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
