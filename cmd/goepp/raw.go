package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
)

var rawFlags struct {
	params []string
}

var rawCmd = &cobra.Command{
	Use:   "raw <file>",
	Short: "Send a hand-written command",
	Long: `Send the EPP command in file ("-" for stdin) after login.

The file is a command template: {{.ClientTransactionID}} is filled with a
fresh transaction ID and {{.Name}} style placeholders take their values
from --param name=value. Values are XML-escaped.`,
	Args: cobra.ExactArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)

	rawCmd.Flags().StringArrayVarP(&rawFlags.params, "param", "p", nil, "template parameter as name=value (repeatable)")
}

func runRaw(cmd *cobra.Command, args []string) error {
	src, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	params, err := parseParams(rawFlags.params)
	if err != nil {
		return err
	}

	return withClient(cmd, "raw", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
		xml, err := c.Renderer.RenderString(src, params)
		if err != nil {
			return nil, err
		}
		return c.Executor().Execute(ctx, xml)
	})
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func parseParams(pairs []string) (command.Params, error) {
	params := command.Params{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q (want name=value)", p)
		}
		params[name] = value
	}
	return params, nil
}
