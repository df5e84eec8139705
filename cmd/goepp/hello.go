package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
)

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Connect and print the server greeting",
	Long: `Connect to the registry, send a hello and print the greeting it
returns. No login is performed.`,
	Args: cobra.NoArgs,
	RunE: runHello,
}

func init() {
	rootCmd.AddCommand(helloCmd)
}

func runHello(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c, err := newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close(context.WithoutCancel(ctx)) }()

	out := cmd.OutOrStdout()
	if c.Session == nil {
		xml, err := c.Renderer.Render(command.Hello, nil)
		if err != nil {
			return err
		}
		return printRecorded(out, []string{xml})
	}

	if err := c.Session.Connect(ctx); err != nil {
		return err
	}
	g, err := c.Session.Hello(ctx)
	if err != nil {
		return err
	}
	return printGreeting(out, g)
}

func printGreeting(w io.Writer, g *epp.Greeting) error {
	switch rootFlags.output {
	case outputXML:
		return printXML(w, g.Raw)
	case outputJSON:
		return printJSON(w, g)
	}
	fmt.Fprintf(w, "server:     %s\n", g.ServerID)
	if g.ServerDate != nil {
		fmt.Fprintf(w, "date:       %s\n", g.ServerDate.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "versions:   %s\n", strings.Join(g.Versions, ", "))
	fmt.Fprintf(w, "languages:  %s\n", strings.Join(g.Languages, ", "))
	for _, uri := range g.ObjectURIs {
		fmt.Fprintf(w, "object:     %s\n", uri)
	}
	for _, uri := range g.ExtensionURIs {
		fmt.Fprintf(w, "extension:  %s\n", uri)
	}
	return nil
}
