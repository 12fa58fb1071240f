package application

import (
	"errors"
	"fmt"

	"owlsync/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrSyncInProgress   = errors.New("a plugin sync is already running")
	ErrNoFormatsEnabled = errors.New("no plugin format enabled")
)

// ValidationError reports an invalid command argument
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigurationError reports an invalid scan configuration. It is returned
// before anything is persisted.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ScanError reports a probe failure for one directory. The collector logs it
// and treats the directory as empty.
type ScanError struct {
	Directory string
	Format    domain.PluginFormat // empty for symlink probes
	Err       error
}

func (e *ScanError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("scan symlinks in %s: %v", e.Directory, e.Err)
	}
	return fmt.Sprintf("scan %s plugins in %s: %v", e.Format.DisplayName(), e.Directory, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a storage failure. It aborts the run.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NativeProbeError reports a native loader failure for one plugin
type NativeProbeError struct {
	Path string
	Err  error
}

func (e *NativeProbeError) Error() string {
	return fmt.Sprintf("native probe of %s: %v", e.Path, e.Err)
}

func (e *NativeProbeError) Unwrap() error {
	return e.Err
}

// SyncError is the terminal error of a failed sync run
type SyncError struct {
	Phase domain.SyncPhase
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("plugins synchronization failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
