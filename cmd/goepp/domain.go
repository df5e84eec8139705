package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/dnssec"
	"github.com/rsclarke/goepp/internal/domain"
	"github.com/rsclarke/goepp/internal/epp"
)

type periodFlags struct {
	value int
	unit  string
}

func (p periodFlags) period() domain.Period {
	if p.value == 0 {
		return domain.Period{}
	}
	return domain.Period{Value: p.value, Unit: p.unit}
}

func registerPeriod(cmd *cobra.Command, p *periodFlags) {
	cmd.Flags().IntVar(&p.value, "period", 0, "registration period (registry default when 0)")
	cmd.Flags().StringVar(&p.unit, "unit", domain.UnitYear, "period unit: y or m")
}

// parseContacts reads role:id pairs.
func parseContacts(pairs []string) ([]epp.DomainContact, error) {
	var out []epp.DomainContact
	for _, p := range pairs {
		role, id, ok := strings.Cut(p, ":")
		if !ok || role == "" || id == "" {
			return nil, fmt.Errorf("invalid contact %q (want role:id)", p)
		}
		out = append(out, epp.DomainContact{Type: role, ID: id})
	}
	return out, nil
}

// parseStatuses reads status[:description] values.
func parseStatuses(values []string) []epp.Status {
	var out []epp.Status
	for _, v := range values {
		s, desc, _ := strings.Cut(v, ":")
		out = append(out, epp.Status{Value: s, Description: desc})
	}
	return out
}

func parseDSList(values []string) ([]epp.DSRecord, error) {
	var out []epp.DSRecord
	for _, v := range values {
		ds, err := dnssec.ParseDS(v)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage domain objects",
}

var domainCheckCmd = &cobra.Command{
	Use:   "check <name>...",
	Short: "Check whether domain names are available",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "domain:check", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Check(ctx, args)
		})
	},
}

var domainInfoFlags struct {
	authInfo string
}

var domainInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "domain:info", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Info(ctx, args[0], domainInfoFlags.authInfo)
		})
	},
}

var domainCreateFlags struct {
	period      periodFlags
	nameservers []string
	registrant  string
	contacts    []string
	authInfo    string
	ds          []string
	maxSigLife  int
}

var domainCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := domainCreateFlags
		contacts, err := parseContacts(f.contacts)
		if err != nil {
			return err
		}
		records, err := parseDSList(f.ds)
		if err != nil {
			return err
		}
		cr := domain.Create{
			Name:        args[0],
			Period:      f.period.period(),
			Nameservers: f.nameservers,
			Registrant:  f.registrant,
			Contacts:    contacts,
			Password:    f.authInfo,
			DSRecords:   records,
			MaxSigLife:  f.maxSigLife,
		}
		return withClient(cmd, "domain:create", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Create(ctx, cr)
		})
	},
}

var domainDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "domain:delete", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Delete(ctx, args[0])
		})
	},
}

var domainRenewFlags struct {
	period periodFlags
	expiry string
}

var domainRenewCmd = &cobra.Command{
	Use:   "renew <name>",
	Short: "Renew a domain",
	Long: `Renew a domain. --expiry must match the current expiry date
(YYYY-MM-DD); the registry rejects the renewal otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expiry, err := time.Parse("2006-01-02", domainRenewFlags.expiry)
		if err != nil {
			return fmt.Errorf("invalid --expiry: %w", err)
		}
		return withClient(cmd, "domain:renew", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Renew(ctx, args[0], expiry, domainRenewFlags.period.period())
		})
	},
}

var domainTransferFlags struct {
	op       string
	period   periodFlags
	authInfo string
}

var domainTransferCmd = &cobra.Command{
	Use:   "transfer <name>",
	Short: "Request, query, approve, reject or cancel a transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := domain.Transfer{
			Name:     args[0],
			Op:       domainTransferFlags.op,
			Period:   domainTransferFlags.period.period(),
			AuthInfo: domainTransferFlags.authInfo,
		}
		return withClient(cmd, "domain:transfer", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Transfer(ctx, tr)
		})
	},
}

var domainUpdateFlags struct {
	addNS      []string
	remNS      []string
	addContact []string
	remContact []string
	addStatus  []string
	remStatus  []string
	registrant string
	authInfo   string
	addDS      []string
	remDS      []string
	remAllDS   bool
}

var domainUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := domainUpdateFlags
		u := domain.Update{
			Name:              args[0],
			AddNameservers:    f.addNS,
			RemoveNameservers: f.remNS,
			AddStatuses:       parseStatuses(f.addStatus),
			RemoveStatuses:    f.remStatus,
			Registrant:        f.registrant,
			Password:          f.authInfo,
			RemoveAllDS:       f.remAllDS,
		}
		var err error
		if u.AddContacts, err = parseContacts(f.addContact); err != nil {
			return err
		}
		if u.RemoveContacts, err = parseContacts(f.remContact); err != nil {
			return err
		}
		if u.AddDS, err = parseDSList(f.addDS); err != nil {
			return err
		}
		if u.RemoveDS, err = parseDSList(f.remDS); err != nil {
			return err
		}
		return withClient(cmd, "domain:update", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.Update(ctx, u)
		})
	},
}

var domainContactsFlags struct {
	role string
}

var domainContactsCmd = &cobra.Command{
	Use:   "contacts <name> <id>...",
	Short: "Replace the contacts holding a role",
	Long: `Make the given IDs the only contacts holding --role. The current
contacts are read first and the difference is sent as an update, so a
concurrent change by another client can be overwritten.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "domain:update", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Domains.ReplaceContacts(ctx, args[0], domainContactsFlags.role, args[1:])
		})
	},
}

func init() {
	rootCmd.AddCommand(domainCmd)
	domainCmd.AddCommand(domainCheckCmd, domainInfoCmd, domainCreateCmd, domainDeleteCmd,
		domainRenewCmd, domainTransferCmd, domainUpdateCmd, domainContactsCmd)

	domainInfoCmd.Flags().StringVar(&domainInfoFlags.authInfo, "auth-info", "", "authInfo password of a domain sponsored by another registrar")

	cf := domainCreateCmd.Flags()
	registerPeriod(domainCreateCmd, &domainCreateFlags.period)
	cf.StringSliceVar(&domainCreateFlags.nameservers, "ns", nil, "nameserver host names")
	cf.StringVar(&domainCreateFlags.registrant, "registrant", "", "registrant contact ID")
	cf.StringArrayVar(&domainCreateFlags.contacts, "contact", nil, "contact as role:id, e.g. admin:c1 (repeatable)")
	cf.StringVar(&domainCreateFlags.authInfo, "auth-info", "", "authInfo password (generated when empty)")
	cf.StringArrayVar(&domainCreateFlags.ds, "ds", nil, `DS record rdata, e.g. "12345 13 2 <digest>" (repeatable)`)
	cf.IntVar(&domainCreateFlags.maxSigLife, "max-sig-life", 0, "secDNS maxSigLife in seconds")

	registerPeriod(domainRenewCmd, &domainRenewFlags.period)
	domainRenewCmd.Flags().StringVar(&domainRenewFlags.expiry, "expiry", "", "current expiry date (YYYY-MM-DD)")
	_ = domainRenewCmd.MarkFlagRequired("expiry")

	registerPeriod(domainTransferCmd, &domainTransferFlags.period)
	domainTransferCmd.Flags().StringVar(&domainTransferFlags.op, "op", domain.TransferRequest, "request, query, approve, reject or cancel")
	domainTransferCmd.Flags().StringVar(&domainTransferFlags.authInfo, "auth-info", "", "authInfo password of the domain")

	uf := domainUpdateCmd.Flags()
	uf.StringSliceVar(&domainUpdateFlags.addNS, "add-ns", nil, "nameservers to add")
	uf.StringSliceVar(&domainUpdateFlags.remNS, "rem-ns", nil, "nameservers to remove")
	uf.StringArrayVar(&domainUpdateFlags.addContact, "add-contact", nil, "contact to add as role:id (repeatable)")
	uf.StringArrayVar(&domainUpdateFlags.remContact, "rem-contact", nil, "contact to remove as role:id (repeatable)")
	uf.StringArrayVar(&domainUpdateFlags.addStatus, "add-status", nil, "status to add as status[:description] (repeatable)")
	uf.StringSliceVar(&domainUpdateFlags.remStatus, "rem-status", nil, "statuses to remove")
	uf.StringVar(&domainUpdateFlags.registrant, "registrant", "", "new registrant contact ID")
	uf.StringVar(&domainUpdateFlags.authInfo, "auth-info", "", "new authInfo password")
	uf.StringArrayVar(&domainUpdateFlags.addDS, "add-ds", nil, "DS record rdata to add (repeatable)")
	uf.StringArrayVar(&domainUpdateFlags.remDS, "rem-ds", nil, "DS record rdata to remove (repeatable)")
	uf.BoolVar(&domainUpdateFlags.remAllDS, "rem-all-ds", false, "remove every DS record")

	domainContactsCmd.Flags().StringVar(&domainContactsFlags.role, "role", domain.RoleTech, "contact role: admin, tech or billing")
}
