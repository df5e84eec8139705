package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/channel"
	"github.com/rsclarke/goepp/internal/config"
	"github.com/rsclarke/goepp/internal/logging"
)

var (
	logger *zap.Logger
	cfg    *config.Config
	v      = viper.New()
)

// skipConfig marks commands that run before a config file exists.
const skipConfig = "skip-config"

var rootFlags struct {
	configPath string
	output     string
	dryRun     bool
}

var rootCmd = &cobra.Command{
	Use:   "goepp",
	Short: "EPP registrar client",
	Long: `goepp talks to domain registries over the Extensible Provisioning
Protocol (RFC 5730). Each command connects, logs in, runs one operation
and logs out.

Settings come from flags, GOEPP_* environment variables and
~/.goepp/config.toml, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.FromEnv())
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		switch rootFlags.output {
		case outputXML, outputJSON, outputMin:
		default:
			return fmt.Errorf("unknown output format %q (want xml, json or min)", rootFlags.output)
		}
		if cmd.Annotations[skipConfig] != "" {
			return nil
		}
		cfg, err = config.Load(v, rootFlags.configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "config file (default ~/.goepp/config.toml)")
	f.StringVarP(&rootFlags.output, "output", "o", outputMin, "output format: xml, json or min")
	f.BoolVar(&rootFlags.dryRun, "dry-run", false, "print the rendered commands without connecting")

	f.String("host", "", "registry host name")
	f.Int("port", channel.DefaultPort, "registry port")
	f.String("client-cert", "", "client certificate (PEM)")
	f.String("client-key", "", "client private key (PEM)")
	f.String("ca-file", "", "CA bundle that replaces the system roots")
	f.String("user", "", "registrar client ID")
	f.String("password", "", "registrar password")
	f.String("journal", "", "SQLite file that journals every command")
	f.String("metrics-file", "", "write Prometheus metrics to this file on exit")

	bindings := map[string]string{
		"host":         "host",
		"port":         "port",
		"client_cert":  "client-cert",
		"client_key":   "client-key",
		"ca_file":      "ca-file",
		"user":         "user",
		"password":     "password",
		"journal":      "journal",
		"metrics_file": "metrics-file",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
