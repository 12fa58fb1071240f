package commands

import (
	"context"
	"fmt"

	"owlsync/internal/application"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// SetNativeDiscoveryCommand turns native discovery on or off for one path.
// The footprint is created when the path has none yet, so the setting can
// be made before the plugin is ever scanned.
type SetNativeDiscoveryCommand struct {
	repo    ports.FootprintRepository
	Path    string
	Enabled bool
}

// NewSetNativeDiscoveryCommand creates a new SetNativeDiscoveryCommand
func NewSetNativeDiscoveryCommand(repo ports.FootprintRepository, path string, enabled bool) *SetNativeDiscoveryCommand {
	return &SetNativeDiscoveryCommand{
		repo:    repo,
		Path:    path,
		Enabled: enabled,
	}
}

// Validate checks if the path is set
func (c *SetNativeDiscoveryCommand) Validate() error {
	if c.Path == "" {
		return &application.ValidationError{
			Field:   "path",
			Message: "plugin path is required",
		}
	}
	return nil
}

// Execute saves the setting and returns the footprint
func (c *SetNativeDiscoveryCommand) Execute(ctx context.Context) (*domain.PluginFootprint, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	fp, err := c.repo.FindByPath(ctx, c.Path)
	if err != nil {
		return nil, fmt.Errorf("load footprint: %w", err)
	}

	if fp == nil {
		fp = domain.NewPluginFootprint(c.Path)
		fp.NativeDiscoveryEnabled = c.Enabled
		if err := c.repo.Create(ctx, fp); err != nil {
			return nil, fmt.Errorf("create footprint: %w", err)
		}
		return fp, nil
	}

	if fp.NativeDiscoveryEnabled == c.Enabled {
		return fp, nil
	}
	fp.NativeDiscoveryEnabled = c.Enabled
	if err := c.repo.Update(ctx, fp); err != nil {
		return nil, fmt.Errorf("update footprint: %w", err)
	}
	return fp, nil
}

// ResetFootprintCommand deletes the footprint of a path, restoring the
// default settings on the next sync
type ResetFootprintCommand struct {
	repo ports.FootprintRepository
	Path string
}

// NewResetFootprintCommand creates a new ResetFootprintCommand
func NewResetFootprintCommand(repo ports.FootprintRepository, path string) *ResetFootprintCommand {
	return &ResetFootprintCommand{
		repo: repo,
		Path: path,
	}
}

// Validate checks if the path is set
func (c *ResetFootprintCommand) Validate() error {
	if c.Path == "" {
		return &application.ValidationError{
			Field:   "path",
			Message: "plugin path is required",
		}
	}
	return nil
}

// Execute deletes the footprint. It returns ErrNotFound if there is none.
func (c *ResetFootprintCommand) Execute(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	n, err := c.repo.DeleteByPath(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("delete footprint: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("footprint %s: %w", c.Path, application.ErrNotFound)
	}
	return nil
}
