package application

import (
	"os"
	"path/filepath"
	"strings"

	"owlsync/internal/domain"
)

// AbsoluteScanConfig returns a copy of cfg whose scope and format directories
// are absolute, with ~ expanded. Scanned paths and the scope clear key then
// name a plugin the same way whichever working directory a run starts from.
func AbsoluteScanConfig(cfg domain.ScanConfig) domain.ScanConfig {
	out := cfg
	out.DirectoryScope = absolutePath(cfg.DirectoryScope)
	if cfg.Formats == nil {
		return out
	}

	out.Formats = make(map[domain.PluginFormat]domain.FormatConfig, len(cfg.Formats))
	for f, fc := range cfg.Formats {
		fc.Directory = absolutePath(fc.Directory)
		if len(fc.ExtraDirectories) > 0 {
			extra := make([]string, len(fc.ExtraDirectories))
			for i, d := range fc.ExtraDirectories {
				extra[i] = absolutePath(d)
			}
			fc.ExtraDirectories = extra
		}
		out.Formats[f] = fc
	}
	return out
}

func absolutePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
