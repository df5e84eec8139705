package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rsclarke/goepp/internal/client"
	"github.com/rsclarke/goepp/internal/contact"
	"github.com/rsclarke/goepp/internal/epp"
)

type postalFlags struct {
	postalType string
	name       string
	org        string
	street     []string
	city       string
	province   string
	postalCode string
	country    string
}

func (p *postalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&p.postalType, "postal-type", contact.PostalInternational, "postal info type: int or loc")
	fs.StringVar(&p.name, "name", "", "contact name")
	fs.StringVar(&p.org, "org", "", "organization")
	fs.StringArrayVar(&p.street, "street", nil, "street line (repeat up to 3 times)")
	fs.StringVar(&p.city, "city", "", "city")
	fs.StringVar(&p.province, "sp", "", "state or province")
	fs.StringVar(&p.postalCode, "pc", "", "postal code")
	fs.StringVar(&p.country, "cc", "", "two-letter country code")
}

func (p *postalFlags) info() epp.PostalInfo {
	return epp.PostalInfo{
		Type:         p.postalType,
		Name:         p.name,
		Organization: p.org,
		Address: epp.Address{
			Street:      p.street,
			City:        p.city,
			Province:    p.province,
			PostalCode:  p.postalCode,
			CountryCode: p.country,
		},
	}
}

func (p *postalFlags) changed(fs *pflag.FlagSet) bool {
	for _, name := range []string{"name", "org", "street", "city", "sp", "pc", "cc"} {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage contact objects",
}

var contactCheckCmd = &cobra.Command{
	Use:   "check <id>...",
	Short: "Check whether contact IDs are available",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "contact:check", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Contacts.Check(ctx, args)
		})
	},
}

var contactInfoFlags struct {
	authInfo string
}

var contactInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "contact:info", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Contacts.Info(ctx, args[0], contactInfoFlags.authInfo)
		})
	},
}

var contactCreateFlags struct {
	postal       postalFlags
	voice        string
	voiceExt     string
	fax          string
	email        string
	password     string
	disclose     []string
	discloseFlag bool
}

var contactCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a contact",
	Long: `Create a contact. A random authInfo password is generated unless
--password is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := contactCreateFlags
		ct := contact.Contact{
			ID:             args[0],
			PostalInfo:     f.postal.info(),
			Voice:          f.voice,
			VoiceExtension: f.voiceExt,
			Fax:            f.fax,
			Email:          f.email,
			Password:       f.password,
			Disclose:       f.disclose,
			DiscloseFlag:   f.discloseFlag,
		}
		return withClient(cmd, "contact:create", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Contacts.Create(ctx, ct)
		})
	},
}

var contactDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "contact:delete", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Contacts.Delete(ctx, args[0])
		})
	},
}

var contactUpdateFlags struct {
	postal    postalFlags
	addStatus []string
	remStatus []string
	voice     string
	fax       string
	email     string
	password  string
}

var contactUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := contactUpdateFlags
		u := contact.Update{
			ID:             args[0],
			AddStatuses:    f.addStatus,
			RemoveStatuses: f.remStatus,
			Voice:          f.voice,
			Fax:            f.fax,
			Email:          f.email,
			Password:       f.password,
		}
		if f.postal.changed(cmd.Flags()) {
			pi := f.postal.info()
			u.PostalInfo = &pi
		}
		return withClient(cmd, "contact:update", func(ctx context.Context, c *client.Client) (*epp.Result, error) {
			return c.Contacts.Update(ctx, u)
		})
	},
}

func init() {
	rootCmd.AddCommand(contactCmd)
	contactCmd.AddCommand(contactCheckCmd, contactInfoCmd, contactCreateCmd, contactDeleteCmd, contactUpdateCmd)

	contactInfoCmd.Flags().StringVar(&contactInfoFlags.authInfo, "auth-info", "", "authInfo password of a contact sponsored by another registrar")

	cf := contactCreateCmd.Flags()
	contactCreateFlags.postal.register(cf)
	cf.StringVar(&contactCreateFlags.voice, "voice", "", "voice number, e.g. +64.41234567")
	cf.StringVar(&contactCreateFlags.voiceExt, "voice-ext", "", "voice extension")
	cf.StringVar(&contactCreateFlags.fax, "fax", "", "fax number")
	cf.StringVar(&contactCreateFlags.email, "email", "", "email address")
	cf.StringVar(&contactCreateFlags.password, "auth-info", "", "authInfo password (generated when empty)")
	cf.StringSliceVar(&contactCreateFlags.disclose, "disclose", nil, "elements named in the disclose block: name,org,addr,voice,fax,email")
	cf.BoolVar(&contactCreateFlags.discloseFlag, "disclose-flag", false, "disclose (true) or withhold (false) the --disclose elements")

	uf := contactUpdateCmd.Flags()
	contactUpdateFlags.postal.register(uf)
	uf.StringSliceVar(&contactUpdateFlags.addStatus, "add-status", nil, "statuses to add")
	uf.StringSliceVar(&contactUpdateFlags.remStatus, "rem-status", nil, "statuses to remove")
	uf.StringVar(&contactUpdateFlags.voice, "voice", "", "new voice number")
	uf.StringVar(&contactUpdateFlags.fax, "fax", "", "new fax number")
	uf.StringVar(&contactUpdateFlags.email, "email", "", "new email address")
	uf.StringVar(&contactUpdateFlags.password, "auth-info", "", "new authInfo password")
}
