package ports

import (
	"context"

	"owlsync/internal/domain"
)

// NativeHost loads plugin binaries out of process to read their metadata
type NativeHost interface {
	// IsEnabled reports whether native discovery is turned on
	IsEnabled() bool

	// LoaderAvailable reports whether the native loader can be started
	LoaderAvailable() bool

	// LoadPlugin probes a plugin binary and returns one record per component.
	// Implementations must honor ctx cancellation.
	LoadPlugin(ctx context.Context, path string) ([]domain.NativePlugin, error)
}
