package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/filemanager"
	"owlsync/internal/adapters/tui"
	"owlsync/internal/bootstrap"
	"owlsync/internal/config"
	"owlsync/internal/logging"
)

func main() {
	cfgFlag := flag.String("config", "", "config file (default "+config.DefaultPath()+")")
	flag.Parse()

	if err := run(*cfgFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := config.Load(config.WithFile(cfgFile))
	if err != nil {
		return err
	}

	// the terminal belongs to the TUI, logs only go to a file
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(config.DefaultDir(), "owlsync.log")
	}
	logger, err := logging.NewLogger(cfg.Log, nil)
	if err != nil {
		return err
	}

	rt, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := tui.NewApp(tui.Deps{
		Plugins:      rt.Store.Plugins(),
		Footprints:   rt.Store.Footprints(),
		Orchestrator: rt.Orchestrator,
		Scan:         rt.ScanConfig(),
		Revealer:     filemanager.NewRevealer(),
		Logger:       logger.Named("tui"),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
