package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"owlsync/internal/bootstrap"
	"owlsync/internal/config"
	"owlsync/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rt      *bootstrap.Runtime
)

// annotation set on commands that only need the configuration
const configOnly = "config-only"

var rootCmd = &cobra.Command{
	Use:   "owlsync-cli",
	Short: "CLI for the owlsync plugin catalog",
	Long: `owlsync-cli keeps a catalog of the audio plugins (VST2, VST3, AU and LV2)
installed on this machine.

It scans the plugin directories, stores what it finds in a local SQLite
database and optionally asks a native scanner for the components each
plugin exposes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(config.WithFile(cfgFile), config.WithFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		if cmd.Annotations[configOnly] == "true" {
			return nil
		}

		logger, err := logging.NewLogger(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		rt, err = bootstrap.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		logger.Debug("command started", zap.String("command", cmd.CommandPath()))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if rt != nil {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	flags.String("database", "", "catalog database path")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format on stderr: console or json")
	flags.String("log-file", "", "also write JSON logs to this file")
}
