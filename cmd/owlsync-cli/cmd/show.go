package cmd

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"owlsync/internal/adapters/filemanager"
	"owlsync/internal/application/commands"
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show one plugin with its components",
	Long: `Show a plugin of the catalog by its exact path.

Examples:
  owlsync-cli show /usr/lib/vst3/Diva.vst3
  owlsync-cli show /usr/lib/vst3/Diva.vst3 --copy
  owlsync-cli show /usr/lib/vst3/Diva.vst3 --reveal`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		plugin, err := commands.NewGetPluginCommand(rt.Store.Plugins(), args[0]).Execute(ctx)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if err := writePlugin(cmd.OutOrStdout(), output, newPluginView(*plugin)); err != nil {
			return err
		}

		if copyPath, _ := cmd.Flags().GetBool("copy"); copyPath {
			if err := clipboard.WriteAll(plugin.Path); err != nil {
				return fmt.Errorf("failed to copy path: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Path copied to clipboard")
		}
		if reveal, _ := cmd.Flags().GetBool("reveal"); reveal {
			if err := filemanager.NewRevealer().Reveal(plugin.Path); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
	showCmd.Flags().Bool("copy", false, "copy the plugin path to the clipboard")
	showCmd.Flags().Bool("reveal", false, "show the plugin in the file manager")
	rootCmd.AddCommand(showCmd)
}
