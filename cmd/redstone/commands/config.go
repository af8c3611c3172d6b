package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stijnvanbael/redstone/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}

			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				return fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "config.yaml", "output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var configPath string
	var dotEnvPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{}
			err := config.NewLoader().
				WithYAMLFile(configPath).
				WithDotEnvFile(dotEnvPath).
				Load(cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")
	cmd.Flags().StringVarP(&dotEnvPath, "dotenv", "e", ".env", ".env file path")

	return cmd
}
