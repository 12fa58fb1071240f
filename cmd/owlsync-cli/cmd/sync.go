package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"owlsync/internal/application"
	"owlsync/internal/application/commands"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the catalog with the plugin directories",
	Long: `Scan the plugin directories and update the catalog.

A full sync clears the catalog and rebuilds it. A differential sync keeps
what is already there, adds new plugins and removes the ones that are gone.

Examples:
  owlsync-cli sync
  owlsync-cli sync --differential
  owlsync-cli sync --scope ~/.vst3 --vst3
  owlsync-cli sync --native --scanner /usr/local/bin/owlplug-scanner`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		quiet, _ := cmd.Flags().GetBool("quiet")
		var out io.Writer = cmd.ErrOrStderr()
		if quiet {
			out = io.Discard
		}

		syncCommand := commands.NewSyncCommand(rt.Orchestrator, rt.ScanConfig(), newProgressPrinter(out))
		result, err := syncCommand.Execute(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("sync interrupted: %w", err)
			}
			if errors.Is(err, application.ErrSyncInProgress) {
				return fmt.Errorf("another sync is running")
			}
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

// progressPrinter writes one line per progress update
type progressPrinter struct {
	w    io.Writer
	last string
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) OnProgress(percent float64, message string) {
	line := fmt.Sprintf("[%3.0f%%] %s", percent, message)
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.w, line)
}

func init() {
	flags := syncCmd.Flags()
	flags.String("scope", "", "scan only this directory")
	flags.Bool("differential", false, "only apply changes since the last sync")
	flags.Bool("native", false, "enrich plugins with the native scanner")
	flags.String("scanner", "", "native scanner binary")
	flags.Duration("native-timeout", 0, "time limit for one native probe")
	flags.Int("concurrency", 1, "plugins synced in parallel")
	flags.String("platform", "", "platform rules to apply: windows, macos or linux")
	flags.Bool("vst2", false, "scan VST2 plugins")
	flags.Bool("vst3", false, "scan VST3 plugins")
	flags.Bool("au", false, "scan Audio Unit plugins")
	flags.Bool("lv2", false, "scan LV2 plugins")
	flags.BoolP("quiet", "q", false, "do not print progress")

	rootCmd.AddCommand(syncCmd)
}
