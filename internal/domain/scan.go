package domain

import "time"

// FormatConfig holds the directories scanned for one plugin format
type FormatConfig struct {
	Enabled          bool     `mapstructure:"enabled" json:"enabled"`
	Directory        string   `mapstructure:"directory" json:"directory"`
	ExtraDirectories []string `mapstructure:"extra_directories" json:"extra_directories,omitempty"`
}

// Directories returns the primary directory followed by the extra ones,
// skipping empty entries
func (c FormatConfig) Directories() []string {
	var dirs []string
	if c.Directory != "" {
		dirs = append(dirs, c.Directory)
	}
	for _, d := range c.ExtraDirectories {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ScanConfig describes what a sync run scans.
// When DirectoryScope is set it overrides every per-format directory.
type ScanConfig struct {
	DirectoryScope string                        `json:"directory_scope,omitempty"`
	Differential   bool                          `json:"differential"`
	Platform       Platform                      `json:"platform" validate:"required,oneof=windows macos linux"`
	Formats        map[PluginFormat]FormatConfig `json:"formats"`
}

// FormatEnabled reports whether the format is enabled
func (c ScanConfig) FormatEnabled(f PluginFormat) bool {
	return c.Formats[f].Enabled
}

// EnabledFormats returns enabled formats in scan order
func (c ScanConfig) EnabledFormats() []PluginFormat {
	var out []PluginFormat
	for _, f := range Formats {
		if c.FormatEnabled(f) {
			out = append(out, f)
		}
	}
	return out
}

// SyncPhase is a step of a sync run
type SyncPhase string

const (
	PhaseInit            SyncPhase = "init"
	PhaseClear           SyncPhase = "clear"
	PhaseCollect         SyncPhase = "collect"
	PhaseDiff            SyncPhase = "diff"
	PhasePersistRemovals SyncPhase = "persist_removals"
	PhasePersistSymlinks SyncPhase = "persist_symlinks"
	PhasePluginLoop      SyncPhase = "plugin_loop"
	PhaseDone            SyncPhase = "done"
	PhaseFailed          SyncPhase = "failed"
)

// SyncStats summarizes a sync run
type SyncStats struct {
	RunID             string
	Differential      bool
	Phase             SyncPhase
	PluginsCollected  int
	SymlinksCollected int
	PluginsCleared    int64
	SymlinksCleared   int64
	PluginsRemoved    int
	SymlinksRemoved   int
	PluginsSynced     int
	NativeCompatible  int
	ComponentsCreated int
	FootprintsCreated int
	ProbeFailures     int
	Duration          time.Duration
}
