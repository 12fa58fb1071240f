package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"owlsync/internal/application"
	"owlsync/internal/application/commands"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// RegisterReadTools adds the read-only catalog tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, plugins ports.PluginRepository) {
	s.AddTool(listPluginsTool(), listPluginsHandler(plugins))
	s.AddTool(searchPluginsTool(), searchPluginsHandler(plugins))
	s.AddTool(getPluginTool(), getPluginHandler(plugins))
}

// --- list_plugins ---

func listPluginsTool() mcp.Tool {
	return mcp.NewTool("list_plugins",
		mcp.WithDescription("List plugins in the catalog. Filters are optional and combined."),
		mcp.WithString("format",
			mcp.Description("Plugin format to keep"),
			mcp.Enum("vst2", "vst3", "au", "lv2"),
		),
		mcp.WithString("path_filter",
			mcp.Description("Case-insensitive substring the plugin path must contain"),
		),
		mcp.WithBoolean("native_only",
			mcp.Description("Only plugins the native scanner could load"),
		),
	)
}

func listPluginsHandler(repo ports.PluginRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewListPluginsCommand(repo)
		cmd.Format = req.GetString("format", "")
		cmd.PathFilter = req.GetString("path_filter", "")
		cmd.NativeOnly = req.GetBool("native_only", false)

		plugins, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatPlugins(plugins)
	}
}

// --- search_plugins ---

func searchPluginsTool() mcp.Tool {
	return mcp.NewTool("search_plugins",
		mcp.WithDescription("Fuzzy search plugins by name, manufacturer or file name. Best matches first."),
		mcp.WithString("query",
			mcp.Description("Search query, at least 2 characters"),
			mcp.Required(),
		),
	)
}

func searchPluginsHandler(repo ports.PluginRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}

		results, err := commands.NewSearchPluginsCommand(repo, query).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("No results found."), nil
		}

		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%s  %d\n", formatPlugin(r.Plugin), r.Score)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- get_plugin ---

func getPluginTool() mcp.Tool {
	return mcp.NewTool("get_plugin",
		mcp.WithDescription("Show one plugin with its native components and discovery settings."),
		mcp.WithString("path",
			mcp.Description("Exact plugin path as listed by list_plugins"),
			mcp.Required(),
		),
	)
}

func getPluginHandler(repo ports.PluginRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := commands.NewGetPluginCommand(repo, req.GetString("path", "")).Execute(ctx)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return toolError(fmt.Errorf("no plugin at %s", req.GetString("path", "")))
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(describePlugin(p)), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatPlugins(plugins []domain.Plugin) (*mcp.CallToolResult, error) {
	if len(plugins) == 0 {
		return mcp.NewToolResultText("No plugins."), nil
	}
	var sb strings.Builder
	for _, p := range plugins {
		sb.WriteString(formatPlugin(p))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatPlugin(p domain.Plugin) string {
	line := fmt.Sprintf("%-4s  %s  %s", p.Format.DisplayName(), p.Name, p.Path)
	if p.NativeCompatible {
		line += "  [native]"
	}
	if p.Disabled {
		line += "  [disabled]"
	}
	return line
}

func describePlugin(p *domain.Plugin) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", p.Name)
	fmt.Fprintf(&sb, "Path: %s\n", p.Path)
	fmt.Fprintf(&sb, "Format: %s\n", p.Format.DisplayName())
	fmt.Fprintf(&sb, "Type: %s\n", p.Type)
	if p.ManufacturerName != "" {
		fmt.Fprintf(&sb, "Manufacturer: %s\n", p.ManufacturerName)
	}
	if p.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", p.Version)
	}
	if p.Category != "" {
		fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	}
	fmt.Fprintf(&sb, "Native compatible: %t\n", p.NativeCompatible)
	fmt.Fprintf(&sb, "Sync complete: %t\n", p.SyncComplete)
	if p.Footprint != nil {
		fmt.Fprintf(&sb, "Native discovery: %t\n", p.Footprint.NativeDiscoveryEnabled)
	}
	if len(p.Components) > 0 {
		sb.WriteString("Components:\n")
		for _, c := range p.Components {
			fmt.Fprintf(&sb, "  %s  %s  %s\n", c.Name, c.Type, c.Identifier)
		}
	}
	return sb.String()
}
