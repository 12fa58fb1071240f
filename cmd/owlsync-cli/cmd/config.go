package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"owlsync/internal/adapters/editor"
	"owlsync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the configuration",
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Long:        "Print the configuration after defaults, config file, environment and flags were applied.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{configOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if cfg.File != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.File)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{configOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:         "edit",
	Short:       "Open the config file in $EDITOR",
	Long:        "Open the config file in your editor. A missing file is first created with the defaults of this platform.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{configOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		if err := editor.NewOpener().OpenFile(path); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}

		// report mistakes right away instead of on the next run
		if _, err := config.Load(config.WithFile(path)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	},
}

func configFilePath() string {
	if cfg != nil && cfg.File != "" {
		return cfg.File
	}
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}
