package main

import (
	"context"
	"fmt"
	"io"

	"github.com/libdns/libdns"
	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/client"
)

var delegationCmd = &cobra.Command{
	Use:   "delegation",
	Short: "Read and change a domain's NS and DS records as DNS records",
}

var delegationListCmd = &cobra.Command{
	Use:   "list <domain>",
	Short: "List the delegation records of a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, c *client.Client) error {
			recs, err := c.Delegation.GetRecords(ctx, args[0])
			if err != nil && c.Recorder == nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c, recs)
		})
	},
}

var delegationChangeFlags struct {
	nameservers []string
	ds          []string
}

func delegationRecords() []libdns.Record {
	var recs []libdns.Record
	for _, ns := range delegationChangeFlags.nameservers {
		recs = append(recs, libdns.NS{Name: "@", Target: ns})
	}
	for _, ds := range delegationChangeFlags.ds {
		recs = append(recs, libdns.RR{Name: "@", Type: "DS", Data: ds})
	}
	return recs
}

var delegationAddCmd = &cobra.Command{
	Use:   "add <domain>",
	Short: "Add nameservers or DS records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs := delegationRecords()
		if len(recs) == 0 {
			return fmt.Errorf("nothing to add: use --ns or --ds")
		}
		return withSession(cmd, func(ctx context.Context, c *client.Client) error {
			added, err := c.Delegation.AppendRecords(ctx, args[0], recs)
			if err != nil && c.Recorder == nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c, added)
		})
	},
}

var delegationRemoveCmd = &cobra.Command{
	Use:   "remove <domain>",
	Short: "Remove nameservers or DS records",
	Long: `Remove nameservers or DS records. An empty value removes every
record of that type, e.g. --ds "" drops all DS records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs := delegationRecords()
		if len(recs) == 0 {
			return fmt.Errorf("nothing to remove: use --ns or --ds")
		}
		return withSession(cmd, func(ctx context.Context, c *client.Client) error {
			removed, err := c.Delegation.DeleteRecords(ctx, args[0], recs)
			if err != nil && c.Recorder == nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), c, removed)
		})
	},
}

// printRecords writes records in zone file order. In dry-run mode the
// rendered commands are shown instead; the provider reports the unsent
// commands as failures, so callers ignore its error then.
func printRecords(w io.Writer, c *client.Client, recs []libdns.Record) error {
	if c.Recorder != nil {
		return printRecorded(w, c.Recorder.Commands())
	}
	if rootFlags.output == outputJSON {
		out := make([]libdns.RR, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.RR())
		}
		return printJSON(w, out)
	}
	for _, r := range recs {
		rr := r.RR()
		fmt.Fprintf(w, "%s\t%d\tIN\t%s\t%s\n", rr.Name, int(rr.TTL.Seconds()), rr.Type, rr.Data)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(delegationCmd)
	delegationCmd.AddCommand(delegationListCmd, delegationAddCmd, delegationRemoveCmd)
	for _, cmd := range []*cobra.Command{delegationAddCmd, delegationRemoveCmd} {
		cmd.Flags().StringArrayVar(&delegationChangeFlags.nameservers, "ns", nil, "nameserver host name (repeatable)")
		cmd.Flags().StringArrayVar(&delegationChangeFlags.ds, "ds", nil, "DS record rdata (repeatable)")
	}
}
