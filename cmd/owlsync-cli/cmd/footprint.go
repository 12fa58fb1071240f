package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"owlsync/internal/application/commands"
)

var footprintCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Manage per-plugin discovery settings",
	Long: `Footprints hold discovery settings keyed by plugin path. They survive
rescans, also full ones.

Examples:
  owlsync-cli footprint disable "/usr/lib/vst3/Crashy.vst3"
  owlsync-cli footprint enable "/usr/lib/vst3/Crashy.vst3"
  owlsync-cli footprint reset "/usr/lib/vst3/Crashy.vst3"`,
}

var footprintEnableCmd = &cobra.Command{
	Use:   "enable <path>",
	Short: "Allow the native scanner to load a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setNativeDiscovery(cmd, args[0], true)
	},
}

var footprintDisableCmd = &cobra.Command{
	Use:   "disable <path>",
	Short: "Keep the native scanner away from a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setNativeDiscovery(cmd, args[0], false)
	},
}

var footprintResetCmd = &cobra.Command{
	Use:   "reset <path>",
	Short: "Delete the discovery settings of a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := commands.NewResetFootprintCommand(rt.Store.Footprints(), args[0]).Execute(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Footprint reset for %s\n", args[0])
		return nil
	},
}

func setNativeDiscovery(cmd *cobra.Command, path string, enabled bool) error {
	ctx := context.Background()
	fp, err := commands.NewSetNativeDiscoveryCommand(rt.Store.Footprints(), path, enabled).Execute(ctx)
	if err != nil {
		return err
	}

	state := "disabled"
	if fp.NativeDiscoveryEnabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Native discovery %s for %s\n", state, fp.Path)
	return nil
}

func init() {
	rootCmd.AddCommand(footprintCmd)
	footprintCmd.AddCommand(footprintEnableCmd)
	footprintCmd.AddCommand(footprintDisableCmd)
	footprintCmd.AddCommand(footprintResetCmd)
}
