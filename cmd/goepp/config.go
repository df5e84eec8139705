package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitFlags struct {
	force bool
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file template",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := rootFlags.configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		if err := config.WriteTemplate(path, configInitFlags.force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the settings are complete enough to log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSession(); err != nil {
			return err
		}
		ch := cfg.Channel()
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s@%s:%d\n", cfg.User, ch.Host, ch.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd)
	configInitCmd.Flags().BoolVar(&configInitFlags.force, "force", false, "overwrite an existing file")
}
