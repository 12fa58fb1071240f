package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "owlsync/internal/adapters/mcp"
	"owlsync/internal/bootstrap"
	"owlsync/internal/config"
	"owlsync/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgFlag := flag.String("config", "", "config file (default "+config.DefaultPath()+")")
	flag.Parse()

	cfg, err := config.Load(config.WithFile(*cfgFlag))
	if err != nil {
		log.Fatalf("owlsync-mcp: %v", err)
	}

	// stdout carries the protocol, logs go to stderr and the optional file
	logger, err := logging.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatalf("owlsync-mcp: %v", err)
	}

	rt, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("owlsync-mcp: %v", err)
	}
	defer rt.Close()

	mcpServer := server.NewMCPServer(
		"owlsync-mcp",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, rt.Store.Plugins())
	mcpadapter.RegisterWriteTools(mcpServer, mcpadapter.SyncDeps{
		Orchestrator: rt.Orchestrator,
		Footprints:   rt.Store.Footprints(),
		Scan:         rt.ScanConfig(),
		Logger:       logger.Named("mcp"),
	})

	logger.Info("serving MCP on stdio", zap.String("version", version))
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("server stopped", zap.Error(err))
		rt.Close()
		os.Exit(1)
	}
}
