package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/epp"
)

type operation func(ctx context.Context, c *client.Client) (*epp.Result, error)

func newClient() (*client.Client, error) {
	opts := []client.Option{client.WithLogger(logger)}
	if rootFlags.dryRun {
		opts = append(opts, client.WithDryRun())
	} else if err := cfg.RequireSession(); err != nil {
		return nil, err
	}
	return client.New(cfg, opts...)
}

// withSession opens a logged-in client, runs fn and logs out.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Open(ctx); err != nil {
		_ = c.Close(ctx)
		return err
	}

	fnErr := fn(ctx, c)
	if err := c.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("closing session", zap.Error(err))
	}
	return fnErr
}

// withClient runs op between login and logout and prints its result, or
// the rendered commands in dry-run mode.
func withClient(cmd *cobra.Command, name string, op operation) error {
	return withSession(cmd, func(ctx context.Context, c *client.Client) error {
		res, err := op(ctx, c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if c.Recorder != nil {
			return printRecorded(out, c.Recorder.Commands())
		}
		return printResult(out, name, res)
	})
}

func printRecorded(w io.Writer, commands []string) error {
	for i, xml := range commands {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printXML(w, xml); err != nil {
			return err
		}
	}
	return nil
}
