package commands

import (
	"context"
	"fmt"
	"strings"

	"owlsync/internal/application"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// ListPluginsCommand lists catalog plugins, optionally filtered
type ListPluginsCommand struct {
	repo ports.PluginRepository

	Format     string // empty for all formats
	PathFilter string // case-insensitive path substring
	NativeOnly bool
}

// NewListPluginsCommand creates a new ListPluginsCommand
func NewListPluginsCommand(repo ports.PluginRepository) *ListPluginsCommand {
	return &ListPluginsCommand{repo: repo}
}

// Validate checks the filters
func (c *ListPluginsCommand) Validate() error {
	if c.Format == "" {
		return nil
	}
	if _, ok := domain.ParsePluginFormat(c.Format); !ok {
		return &application.ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("unknown plugin format: %s", c.Format),
		}
	}
	return nil
}

// Execute returns the matching plugins in catalog order
func (c *ListPluginsCommand) Execute(ctx context.Context) ([]domain.Plugin, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	all, err := c.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	format, _ := domain.ParsePluginFormat(c.Format)
	needle := strings.ToLower(c.PathFilter)

	out := make([]domain.Plugin, 0, len(all))
	for _, p := range all {
		if format != "" && p.Format != format {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Path), needle) {
			continue
		}
		if c.NativeOnly && !p.NativeCompatible {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetPluginCommand fetches one plugin by exact path
type GetPluginCommand struct {
	repo ports.PluginRepository
	Path string
}

// NewGetPluginCommand creates a new GetPluginCommand
func NewGetPluginCommand(repo ports.PluginRepository, path string) *GetPluginCommand {
	return &GetPluginCommand{
		repo: repo,
		Path: path,
	}
}

// Validate checks if the path is set
func (c *GetPluginCommand) Validate() error {
	if c.Path == "" {
		return &application.ValidationError{
			Field:   "path",
			Message: "plugin path is required",
		}
	}
	return nil
}

// Execute returns the plugin or ErrNotFound
func (c *GetPluginCommand) Execute(ctx context.Context) (*domain.Plugin, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p, err := c.repo.FindByPath(ctx, c.Path)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plugin %s: %w", c.Path, application.ErrNotFound)
	}
	return p, nil
}
