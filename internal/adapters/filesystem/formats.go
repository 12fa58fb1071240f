package filesystem

import (
	"path/filepath"
	"slices"
	"strings"

	"owlsync/internal/domain"
)

// fileRule describes how a format appears on disk for one platform
type fileRule struct {
	ext    string
	bundle bool // directory bundle
	file   bool // plain file
}

// rulesFor returns the on-disk rules of a format for a platform. A format
// with no rules is not available on that platform.
func rulesFor(platform domain.Platform, format domain.PluginFormat) []fileRule {
	switch format {
	case domain.FormatVST3:
		return []fileRule{{ext: ".vst3", bundle: true, file: true}}
	case domain.FormatVST2:
		switch platform {
		case domain.PlatformWindows:
			return []fileRule{{ext: ".dll", file: true}}
		case domain.PlatformMacOS:
			return []fileRule{{ext: ".vst", bundle: true}}
		default:
			return []fileRule{{ext: ".so", file: true}}
		}
	case domain.FormatAU:
		if platform == domain.PlatformMacOS {
			return []fileRule{{ext: ".component", bundle: true}}
		}
	case domain.FormatLV2:
		return []fileRule{{ext: ".lv2", bundle: true}}
	}
	return nil
}

// match reports whether name is a plugin of the given rules. A trailing
// disabled suffix is ignored.
func match(rules []fileRule, name string, isDir bool) bool {
	lower := strings.ToLower(name)
	lower = strings.TrimSuffix(lower, domain.DisabledSuffix)
	ext := filepath.Ext(lower)

	for _, r := range rules {
		if ext != r.ext {
			continue
		}
		if (isDir && r.bundle) || (!isDir && r.file) {
			return true
		}
	}
	return false
}

var bundleExts = []string{".vst3", ".vst", ".component", ".lv2"}

// isBundle reports whether a directory name is a plugin bundle of any format
func isBundle(name string) bool {
	ext := filepath.Ext(strings.TrimSuffix(strings.ToLower(name), domain.DisabledSuffix))
	return slices.Contains(bundleExts, ext)
}
