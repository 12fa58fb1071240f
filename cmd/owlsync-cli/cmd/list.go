package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"owlsync/internal/application/commands"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins in the catalog",
	Long: `List the plugins of the catalog. Filters are combined.

Examples:
  owlsync-cli list
  owlsync-cli list --format vst3 --native-only
  owlsync-cli list --filter u-he -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		listCommand := commands.NewListPluginsCommand(rt.Store.Plugins())
		listCommand.Format, _ = cmd.Flags().GetString("format")
		listCommand.PathFilter, _ = cmd.Flags().GetString("filter")
		listCommand.NativeOnly, _ = cmd.Flags().GetBool("native-only")

		plugins, err := listCommand.Execute(ctx)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		return writePlugins(cmd.OutOrStdout(), output, pluginViews(plugins))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search plugins by name, manufacturer or file name",
	Long: `Search the catalog. Best matches come first.

Examples:
  owlsync-cli search diva
  owlsync-cli search "pro q" -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		results, err := commands.NewSearchPluginsCommand(rt.Store.Plugins(), args[0]).Execute(ctx)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		return writePlugins(cmd.OutOrStdout(), output, searchViews(results))
	},
}

func init() {
	listCmd.Flags().String("format", "", "keep one plugin format: vst2, vst3, au or lv2")
	listCmd.Flags().String("filter", "", "case-insensitive substring of the plugin path")
	listCmd.Flags().Bool("native-only", false, "only plugins the native scanner could load")

	for _, c := range []*cobra.Command{listCmd, searchCmd} {
		c.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
		rootCmd.AddCommand(c)
	}
}
