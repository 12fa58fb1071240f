package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// PluginFormat is one of the supported audio plugin formats
type PluginFormat string

const (
	FormatVST2 PluginFormat = "vst2"
	FormatVST3 PluginFormat = "vst3"
	FormatAU   PluginFormat = "au"
	FormatLV2  PluginFormat = "lv2"
)

// Formats lists every supported format in scan order
var Formats = []PluginFormat{FormatLV2, FormatVST3, FormatVST2, FormatAU}

// ParsePluginFormat parses a format name, case-insensitively
func ParsePluginFormat(s string) (PluginFormat, bool) {
	f := PluginFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatVST2, FormatVST3, FormatAU, FormatLV2:
		return f, true
	}
	return "", false
}

func (f PluginFormat) String() string {
	return string(f)
}

// DisplayName returns the conventional upper-case name (VST3, AU...)
func (f PluginFormat) DisplayName() string {
	return strings.ToUpper(string(f))
}

// PluginType classifies a plugin or component
type PluginType string

const (
	PluginTypeUnknown    PluginType = "unknown"
	PluginTypeInstrument PluginType = "instrument"
	PluginTypeEffect     PluginType = "effect"
)

// TypeFromInstrumentFlag maps a native instrument flag to a PluginType
func TypeFromInstrumentFlag(isInstrument bool) PluginType {
	if isInstrument {
		return PluginTypeInstrument
	}
	return PluginTypeEffect
}

// Platform is the operating system a scan targets
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
)

// PlatformFromGOOS maps runtime.GOOS values to a Platform
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}

// DisabledSuffix marks a plugin file that was disabled by renaming it
const DisabledSuffix = ".disabled"

// IsDisabledPath reports whether the path carries the disabled suffix
func IsDisabledPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), DisabledSuffix)
}

// PluginFile is a scan-time candidate: one detected plugin binary or bundle.
// Identity is the path.
type PluginFile struct {
	Path   string
	Format PluginFormat
	Bundle bool // true when the plugin is a directory bundle (.vst3, .component, .lv2...)
}

// Key returns the identity of the file
func (f PluginFile) Key() string {
	return f.Path
}

// Name returns the plugin name derived from the file or bundle name
func (f PluginFile) Name() string {
	base := filepath.Base(f.Path)
	if IsDisabledPath(base) {
		base = base[:len(base)-len(DisabledSuffix)]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ToPlugin builds a draft Plugin record from the scanned file
func (f PluginFile) ToPlugin() *Plugin {
	return &Plugin{
		Path:     f.Path,
		Format:   f.Format,
		Name:     f.Name(),
		Bundle:   f.Bundle,
		Disabled: IsDisabledPath(f.Path),
		Type:     PluginTypeUnknown,
	}
}

// Plugin is a persisted catalog entry, unique by path
type Plugin struct {
	ID               int64
	Path             string
	Format           PluginFormat
	Name             string
	DescriptiveName  string
	Version          string
	Category         string
	ManufacturerName string
	Identifier       string
	UID              string
	Type             PluginType
	Bundle           bool
	Disabled         bool
	NativeCompatible bool
	SyncComplete     bool

	Components []PluginComponent
	Footprint  *PluginFootprint
}

// Key returns the identity of the plugin
func (p Plugin) Key() string {
	return p.Path
}

// ApplyNative copies the descriptive fields of a native record onto the plugin
func (p *Plugin) ApplyNative(n NativePlugin) {
	p.DescriptiveName = n.DescriptiveName
	p.Version = n.Version
	p.Category = n.Category
	p.ManufacturerName = n.ManufacturerName
	p.Identifier = n.FileOrIdentifier
	p.UID = strconv.Itoa(n.UID)
	p.Type = TypeFromInstrumentFlag(n.IsInstrument)
}

// PluginComponent is one native component owned by a plugin. A plugin
// binary may expose several (e.g. a shell plugin).
type PluginComponent struct {
	ID               int64
	PluginID         int64
	Name             string
	DescriptiveName  string
	Version          string
	Category         string
	ManufacturerName string
	Identifier       string
	UID              string
	Type             PluginType
}

// ComponentFromNative creates a component from a native record
func ComponentFromNative(n NativePlugin) PluginComponent {
	return PluginComponent{
		Name:             n.Name,
		DescriptiveName:  n.DescriptiveName,
		Version:          n.Version,
		Category:         n.Category,
		ManufacturerName: n.ManufacturerName,
		Identifier:       n.FileOrIdentifier,
		UID:              strconv.Itoa(n.UID),
		Type:             TypeFromInstrumentFlag(n.IsInstrument),
	}
}

// PluginFootprint holds per-path discovery settings that survive rescans
type PluginFootprint struct {
	ID                     int64
	Path                   string
	NativeDiscoveryEnabled bool
}

// NewPluginFootprint returns a footprint with default settings
func NewPluginFootprint(path string) *PluginFootprint {
	return &PluginFootprint{
		Path:                   path,
		NativeDiscoveryEnabled: true,
	}
}

// Symlink is a persisted symbolic link found in a plugin directory
type Symlink struct {
	ID         int64
	Path       string
	TargetPath string
}

// Key returns the identity of the symlink
func (s Symlink) Key() string {
	return s.Path
}

// NativePlugin is one component record returned by the native loader
type NativePlugin struct {
	Name             string `json:"name"`
	DescriptiveName  string `json:"descriptiveName"`
	Version          string `json:"version"`
	Category         string `json:"category"`
	ManufacturerName string `json:"manufacturerName"`
	FileOrIdentifier string `json:"fileOrIdentifier"`
	UID              int    `json:"uid"`
	IsInstrument     bool   `json:"isInstrument"`
}
