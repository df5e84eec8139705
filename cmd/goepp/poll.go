package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/epp"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Read the registrar message queue",
}

var pollRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Show the oldest queued message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "poll", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Poll.Request(ctx)
		})
	},
}

var pollAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge and dequeue a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "poll", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Poll.Acknowledge(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.AddCommand(pollRequestCmd, pollAckCmd)
}
