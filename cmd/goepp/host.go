package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/host"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Manage host objects",
}

var hostCheckCmd = &cobra.Command{
	Use:   "check <name>...",
	Short: "Check whether host names are available",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "host:check", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Hosts.Check(ctx, args)
		})
	},
}

var hostInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "host:info", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Hosts.Info(ctx, args[0])
		})
	},
}

var hostCreateFlags struct {
	addresses []string
}

var hostCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cr := host.Create{Name: args[0], Addresses: hostCreateFlags.addresses}
		return withClient(cmd, "host:create", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Hosts.Create(ctx, cr)
		})
	},
}

var hostDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "host:delete", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Hosts.Delete(ctx, args[0])
		})
	},
}

var hostUpdateFlags struct {
	addAddr   []string
	remAddr   []string
	addStatus []string
	remStatus []string
	newName   string
}

var hostUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := hostUpdateFlags
		u := host.Update{
			Name:            args[0],
			AddAddresses:    f.addAddr,
			RemoveAddresses: f.remAddr,
			AddStatuses:     f.addStatus,
			RemoveStatuses:  f.remStatus,
			NewName:         f.newName,
		}
		return withClient(cmd, "host:update", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Hosts.Update(ctx, u)
		})
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.AddCommand(hostCheckCmd, hostInfoCmd, hostCreateCmd, hostDeleteCmd, hostUpdateCmd)

	hostCreateCmd.Flags().StringSliceVar(&hostCreateFlags.addresses, "addr", nil, "IPv4 or IPv6 addresses")

	uf := hostUpdateCmd.Flags()
	uf.StringSliceVar(&hostUpdateFlags.addAddr, "add-addr", nil, "addresses to add")
	uf.StringSliceVar(&hostUpdateFlags.remAddr, "rem-addr", nil, "addresses to remove")
	uf.StringSliceVar(&hostUpdateFlags.addStatus, "add-status", nil, "client statuses to add")
	uf.StringSliceVar(&hostUpdateFlags.remStatus, "rem-status", nil, "client statuses to remove")
	uf.StringVar(&hostUpdateFlags.newName, "new-name", "", "rename the host")
}
