package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"owlsync/internal/application"
	"owlsync/internal/application/commands"
	"owlsync/internal/application/pluginsync"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// SyncDeps are the collaborators of the write tools
type SyncDeps struct {
	Orchestrator *pluginsync.Orchestrator
	Footprints   ports.FootprintRepository
	Scan         domain.ScanConfig // base config, refined per call
	Logger       *zap.Logger
}

// RegisterWriteTools adds the tools that change the catalog to the MCP server.
func RegisterWriteTools(s *server.MCPServer, deps SyncDeps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s.AddTool(syncTool(), syncHandler(deps))
	s.AddTool(setNativeDiscoveryTool(), setNativeDiscoveryHandler(deps.Footprints))
	s.AddTool(resetFootprintTool(), resetFootprintHandler(deps.Footprints))
}

// --- sync ---

func syncTool() mcp.Tool {
	return mcp.NewTool("sync",
		mcp.WithDescription("Synchronize the plugin catalog with the plugin directories. A full sync clears and rebuilds the catalog; a differential one only adds new plugins and removes missing ones."),
		mcp.WithBoolean("differential",
			mcp.Description("Only apply what changed since the last sync"),
		),
		mcp.WithString("scope",
			mcp.Description("Scan only this directory instead of the configured plugin directories"),
		),
	)
}

func syncHandler(deps SyncDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := deps.Scan
		cfg.Differential = req.GetBool("differential", cfg.Differential)
		if scope := req.GetString("scope", ""); scope != "" {
			cfg.DirectoryScope = scope
		}

		listener := newProgressNotifier(ctx, req, deps.Logger)
		result, err := commands.NewSyncCommand(deps.Orchestrator, cfg, listener).Execute(ctx)
		if err != nil {
			if errors.Is(err, application.ErrSyncInProgress) {
				return toolError(fmt.Errorf("a sync is already running, try again when it is done"))
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// progressNotifier forwards sync progress as MCP progress notifications
// when the client asked for them with a progress token
type progressNotifier struct {
	ctx    context.Context
	srv    *server.MCPServer
	token  mcp.ProgressToken
	logger *zap.Logger
}

func newProgressNotifier(ctx context.Context, req mcp.CallToolRequest, logger *zap.Logger) ports.SyncListener {
	n := &progressNotifier{ctx: ctx, srv: server.ServerFromContext(ctx), logger: logger}
	if req.Params.Meta != nil {
		n.token = req.Params.Meta.ProgressToken
	}
	return n
}

func (n *progressNotifier) OnProgress(percent float64, message string) {
	if n.srv == nil || n.token == nil {
		return
	}
	err := n.srv.SendNotificationToClient(n.ctx, "notifications/progress", map[string]any{
		"progressToken": n.token,
		"progress":      percent,
		"total":         100,
		"message":       message,
	})
	if err != nil {
		n.logger.Debug("progress notification not sent", zap.Error(err))
	}
}

// --- set_native_discovery ---

func setNativeDiscoveryTool() mcp.Tool {
	return mcp.NewTool("set_native_discovery",
		mcp.WithDescription("Turn native discovery on or off for one plugin path. The setting survives rescans."),
		mcp.WithString("path",
			mcp.Description("Exact plugin path"),
			mcp.Required(),
		),
		mcp.WithBoolean("enabled",
			mcp.Description("Whether the native scanner may load this plugin"),
			mcp.Required(),
		),
	)
}

func setNativeDiscoveryHandler(repo ports.FootprintRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		enabled := req.GetBool("enabled", true)

		fp, err := commands.NewSetNativeDiscoveryCommand(repo, path, enabled).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		state := "disabled"
		if fp.NativeDiscoveryEnabled {
			state = "enabled"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Native discovery %s for %s", state, fp.Path)), nil
	}
}

// --- reset_footprint ---

func resetFootprintTool() mcp.Tool {
	return mcp.NewTool("reset_footprint",
		mcp.WithDescription("Delete the discovery settings of a plugin path. The next sync recreates them with defaults."),
		mcp.WithString("path",
			mcp.Description("Exact plugin path"),
			mcp.Required(),
		),
	)
}

func resetFootprintHandler(repo ports.FootprintRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if err := commands.NewResetFootprintCommand(repo, path).Execute(ctx); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Footprint reset for %s", path)), nil
	}
}
