package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/dnssec"
	"github.com/rsclarke/goepp/internal/epp"
)

var dsFlags struct {
	dnskey     bool
	digestType uint8
}

var dsCmd = &cobra.Command{
	Use:   "ds <record>|-",
	Short: "Parse a DS or DNSKEY record offline",
	Long: `Parse a DS record, or derive one from a DNSKEY record with --dnskey,
and print it the way domain create and update expect it. Reads the record
from stdin when the argument is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]
		if text == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(b)
		}
		var (
			ds  epp.DSRecord
			err error
		)
		if dsFlags.dnskey {
			ds, err = dnssec.FromDNSKEY(text, dsFlags.digestType)
		} else {
			ds, err = dnssec.ParseDS(text)
		}
		if err != nil {
			return err
		}
		return printDS(cmd.OutOrStdout(), ds)
	},
}

func printDS(w io.Writer, ds epp.DSRecord) error {
	if rootFlags.output == outputJSON {
		return printJSON(w, ds)
	}
	fmt.Fprintf(w, "%d %d %d %s\n", ds.KeyTag, ds.Algorithm, ds.DigestType, ds.Digest)
	fmt.Fprintf(w, "algorithm:  %s\n", dnssec.AlgorithmName(ds.Algorithm))
	fmt.Fprintf(w, "digest:     %s\n", dnssec.DigestName(ds.DigestType))
	if k := ds.KeyData; k != nil {
		fmt.Fprintf(w, "key:        %d %d %d %s\n", k.Flags, k.Protocol, k.Algorithm, strings.TrimSpace(k.PublicKey))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dsCmd)
	dsCmd.Flags().BoolVar(&dsFlags.dnskey, "dnskey", false, "input is a DNSKEY record")
	dsCmd.Flags().Uint8Var(&dsFlags.digestType, "digest-type", dns.SHA256, "digest type used with --dnskey")
}
