// Package filemanager shows plugin files in the desktop file manager
package filemanager

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"owlsync/internal/ports"
)

// Revealer implements ports.FileRevealer
type Revealer struct {
	goos string
}

var _ ports.FileRevealer = (*Revealer)(nil)

// NewRevealer creates a revealer for the running operating system
func NewRevealer() *Revealer {
	return &Revealer{goos: runtime.GOOS}
}

// Reveal opens the file manager with path selected where the platform
// supports it, otherwise on the directory that contains it
func (r *Revealer) Reveal(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot reveal %s: %w", path, err)
	}

	name, args, err := r.BuildCommand(path)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// BuildCommand returns the program and arguments that reveal path
func (r *Revealer) BuildCommand(path string) (string, []string, error) {
	switch r.goos {
	case "darwin":
		// -R selects the bundle instead of opening it
		return "open", []string{"-R", path}, nil
	case "windows":
		return "explorer", []string{"/select," + filepath.FromSlash(path)}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{filepath.Dir(path)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", r.goos)
	}
}
