// Package domain implements the EPP domain mapping (RFC 5731) with the
// DNSSEC extension (RFC 5910).
package domain

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/dnssec"
	"github.com/rsclarke/goepp/internal/epp"
)

// Contact roles.
const (
	RoleAdmin   = "admin"
	RoleTech    = "tech"
	RoleBilling = "billing"
)

// Transfer operations.
const (
	TransferRequest = "request"
	TransferQuery   = "query"
	TransferApprove = "approve"
	TransferReject  = "reject"
	TransferCancel  = "cancel"
)

// Period units.
const (
	UnitYear  = "y"
	UnitMonth = "m"
)

const expiryLayout = "2006-01-02"

var (
	roles       = []string{RoleAdmin, RoleTech, RoleBilling}
	transferOps = []string{TransferRequest, TransferQuery, TransferApprove, TransferReject, TransferCancel}
)

// Period is a registration period. The zero value leaves the period to the
// registry.
type Period struct {
	Value int
	Unit  string
}

// Years returns a period of n years.
func Years(n int) Period { return Period{Value: n, Unit: UnitYear} }

func (p Period) params(dst command.Params) error {
	if p.Value == 0 {
		return nil
	}
	unit := p.Unit
	if unit == "" {
		unit = UnitYear
	}
	if unit != UnitYear && unit != UnitMonth {
		return fmt.Errorf("%w: period unit %q", epp.ErrInvalidParameter, p.Unit)
	}
	if p.Value < 1 || p.Value > 99 {
		return fmt.Errorf("%w: period %d out of range 1-99", epp.ErrInvalidParameter, p.Value)
	}
	dst["Period"] = p.Value
	dst["PeriodUnit"] = unit
	return nil
}

// Create describes a domain registration.
type Create struct {
	Name        string
	Period      Period
	Nameservers []string
	Registrant  string
	Contacts    []epp.DomainContact
	// Password is the authInfo; one is generated when empty.
	Password  string
	DSRecords []epp.DSRecord
	// MaxSigLife is sent inside the secDNS block, so it needs DSRecords.
	MaxSigLife int
}

// Transfer describes a transfer operation. Period applies to requests only.
type Transfer struct {
	Name     string
	Op       string
	Period   Period
	AuthInfo string
}

// Update describes changes to a domain. Empty fields are left unchanged.
type Update struct {
	Name              string
	AddNameservers    []string
	RemoveNameservers []string
	AddContacts       []epp.DomainContact
	RemoveContacts    []epp.DomainContact
	AddStatuses       []epp.Status
	RemoveStatuses    []string
	Registrant        string
	Password          string
	AddDS             []epp.DSRecord
	RemoveDS          []epp.DSRecord
	// RemoveAllDS removes every DS record; it excludes RemoveDS.
	RemoveAllDS bool
}

// Client issues domain commands over an executor.
type Client struct {
	exec     epp.Executor
	renderer *command.Renderer
}

// New returns a domain client.
func New(exec epp.Executor, renderer *command.Renderer) *Client {
	return &Client{exec: exec, renderer: renderer}
}

// Check asks whether each name can be registered. The payload is keyed by
// the names as given.
func (c *Client) Check(ctx context.Context, names []string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateNames(names); err != nil {
		return nil, err
	}
	res, err := epp.Send(ctx, c.exec, c.renderer, command.DomainCheck, command.Params{"Names": names}, opts...)
	if err != nil || res.Code != epp.CodeSuccess {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	checks, err := epp.DecodeCheck(doc, "name")
	if err != nil {
		return nil, err
	}
	res.Payload = checks.Rekey(names)
	return res, nil
}

// Info retrieves a domain with all of its hosts. authInfo may be empty for
// sponsored domains.
func (c *Client) Info(ctx context.Context, name, authInfo string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(name); err != nil {
		return nil, err
	}
	res, err := epp.Send(ctx, c.exec, c.renderer, command.DomainInfo, command.Params{
		"Name":     name,
		"Hosts":    "all",
		"AuthInfo": authInfo,
	}, opts...)
	if err != nil || res.Code != epp.CodeSuccess {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	info, err := decodeInfo(doc)
	if err != nil {
		return nil, err
	}
	res.Payload = info
	return res, nil
}

// Create registers a domain.
func (c *Client) Create(ctx context.Context, cr Create, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(cr.Name); err != nil {
		return nil, err
	}
	params := command.Params{
		"Name":        cr.Name,
		"Nameservers": cr.Nameservers,
		"Registrant":  cr.Registrant,
		"MaxSigLife":  cr.MaxSigLife,
	}
	params[command.KeyPassword] = cr.Password
	if err := cr.Period.params(params); err != nil {
		return nil, err
	}
	if err := validateHosts(cr.Nameservers); err != nil {
		return nil, err
	}
	if cr.MaxSigLife < 0 {
		return nil, fmt.Errorf("%w: negative maxSigLife", epp.ErrInvalidParameter)
	}
	if cr.MaxSigLife > 0 && len(cr.DSRecords) == 0 {
		return nil, fmt.Errorf("%w: maxSigLife requires DS records", epp.ErrInvalidParameter)
	}
	contacts, err := contactParams(cr.Contacts)
	if err != nil {
		return nil, err
	}
	params["Contacts"] = contacts
	ds, err := dsParams(cr.DSRecords)
	if err != nil {
		return nil, err
	}
	params["DSRecords"] = ds

	res, err := epp.Send(ctx, c.exec, c.renderer, command.DomainCreate, params, opts...)
	if err != nil || !res.Succeeded() {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	cre := doc.Child("resData").Child("creData")
	if cre == nil {
		return nil, epp.MissingElement("creData")
	}
	out := &epp.DomainCreation{Name: cre.ChildText("name")}
	if out.Created, err = epp.TimeOf(cre, "crDate"); err != nil {
		return nil, err
	}
	if out.Expires, err = epp.TimeOf(cre, "exDate"); err != nil {
		return nil, err
	}
	res.Payload = out
	return res, nil
}

// Delete removes a domain.
func (c *Client) Delete(ctx context.Context, name string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(name); err != nil {
		return nil, err
	}
	return epp.Send(ctx, c.exec, c.renderer, command.DomainDelete, command.Params{"Name": name}, opts...)
}

// Renew extends a registration. currentExpiry must match the registry's
// expiry date.
func (c *Client) Renew(ctx context.Context, name string, currentExpiry time.Time, period Period, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(name); err != nil {
		return nil, err
	}
	if currentExpiry.IsZero() {
		return nil, fmt.Errorf("%w: current expiry date is required", epp.ErrInvalidParameter)
	}
	params := command.Params{
		"Name":          name,
		"CurrentExpiry": currentExpiry.UTC().Format(expiryLayout),
	}
	if err := period.params(params); err != nil {
		return nil, err
	}

	res, err := epp.Send(ctx, c.exec, c.renderer, command.DomainRenew, params, opts...)
	if err != nil || !res.Succeeded() {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	ren := doc.Child("resData").Child("renData")
	if ren == nil {
		return nil, epp.MissingElement("renData")
	}
	out := &epp.DomainRenewal{Name: ren.ChildText("name")}
	if out.Expires, err = epp.TimeOf(ren, "exDate"); err != nil {
		return nil, err
	}
	res.Payload = out
	return res, nil
}

// Transfer runs one of the transfer operations.
func (c *Client) Transfer(ctx context.Context, tr Transfer, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(tr.Name); err != nil {
		return nil, err
	}
	op := tr.Op
	if op == "" {
		op = TransferRequest
	}
	if !slices.Contains(transferOps, op) {
		return nil, fmt.Errorf("%w: transfer op %q", epp.ErrInvalidParameter, tr.Op)
	}
	params := command.Params{"Op": op, "Name": tr.Name, "AuthInfo": tr.AuthInfo}
	if op == TransferRequest {
		if err := tr.Period.params(params); err != nil {
			return nil, err
		}
	}

	res, err := epp.Send(ctx, c.exec, c.renderer, command.DomainTransfer, params, opts...)
	if err != nil || !res.Succeeded() {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	trn := doc.Child("resData").Child("trnData")
	if trn == nil {
		// approve, reject and cancel may carry no data.
		return res, nil
	}
	out := &epp.DomainTransfer{
		Name:            trn.ChildText("name"),
		Status:          trn.ChildText("trStatus"),
		RequestClientID: trn.ChildText("reID"),
		ActionClientID:  trn.ChildText("acID"),
	}
	if out.Requested, err = epp.TimeOf(trn, "reDate"); err != nil {
		return nil, err
	}
	if out.ActionDate, err = epp.TimeOf(trn, "acDate"); err != nil {
		return nil, err
	}
	if out.Expires, err = epp.TimeOf(trn, "exDate"); err != nil {
		return nil, err
	}
	res.Payload = out
	return res, nil
}

// Update modifies a domain. At least one change must be requested.
func (c *Client) Update(ctx context.Context, u Update, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(u.Name); err != nil {
		return nil, err
	}
	params, err := updateParams(u)
	if err != nil {
		return nil, err
	}
	return epp.Send(ctx, c.exec, c.renderer, command.DomainUpdate, params, opts...)
}

// ReplaceContacts makes ids the only contacts holding role. It reads the
// domain and then updates it in a second command; another client changing
// the contacts in between is not detected. A non-success info result is
// returned as is. opts apply to the update.
func (c *Client) ReplaceContacts(ctx context.Context, name, role string, ids []string, opts ...command.Option) (*epp.Result, error) {
	if !slices.Contains(roles, role) {
		return nil, fmt.Errorf("%w: contact role %q", epp.ErrInvalidParameter, role)
	}
	res, err := c.Info(ctx, name, "")
	if err != nil || res.Code != epp.CodeSuccess {
		return res, err
	}
	current := res.Payload.(*epp.DomainInfo).ContactIDs(role)

	u := Update{Name: name}
	for _, id := range current {
		if !slices.Contains(ids, id) {
			u.RemoveContacts = append(u.RemoveContacts, epp.DomainContact{Type: role, ID: id})
		}
	}
	for _, id := range ids {
		if !slices.Contains(current, id) {
			u.AddContacts = append(u.AddContacts, epp.DomainContact{Type: role, ID: id})
		}
	}
	if len(u.AddContacts) == 0 && len(u.RemoveContacts) == 0 {
		return res, nil
	}
	return c.Update(ctx, u, opts...)
}

func updateParams(u Update) (command.Params, error) {
	if err := validateHosts(u.AddNameservers); err != nil {
		return nil, err
	}
	if err := validateHosts(u.RemoveNameservers); err != nil {
		return nil, err
	}
	addContacts, err := contactParams(u.AddContacts)
	if err != nil {
		return nil, err
	}
	remContacts, err := contactParams(u.RemoveContacts)
	if err != nil {
		return nil, err
	}
	if u.RemoveAllDS && len(u.RemoveDS) > 0 {
		return nil, fmt.Errorf("%w: remove all DS records or a list, not both", epp.ErrInvalidParameter)
	}
	addDS, err := dsParams(u.AddDS)
	if err != nil {
		return nil, err
	}
	remDS, err := dsParams(u.RemoveDS)
	if err != nil {
		return nil, err
	}

	statuses := make([]command.Params, 0, len(u.AddStatuses))
	for _, s := range u.AddStatuses {
		if s.Value == "" {
			return nil, fmt.Errorf("%w: empty status", epp.ErrInvalidParameter)
		}
		statuses = append(statuses, command.Params{"Value": s.Value, "Description": s.Description})
	}

	hasAdd := len(u.AddNameservers) > 0 || len(addContacts) > 0 || len(statuses) > 0
	hasRem := len(u.RemoveNameservers) > 0 || len(remContacts) > 0 || len(u.RemoveStatuses) > 0
	hasChg := u.Registrant != "" || u.Password != ""
	hasDNSSEC := u.RemoveAllDS || len(addDS) > 0 || len(remDS) > 0
	if !hasAdd && !hasRem && !hasChg && !hasDNSSEC {
		return nil, fmt.Errorf("%w: update of %s changes nothing", epp.ErrInvalidParameter, u.Name)
	}

	return command.Params{
		"Name":              u.Name,
		"HasAdd":            hasAdd,
		"AddNameservers":    u.AddNameservers,
		"AddContacts":       addContacts,
		"AddStatuses":       statuses,
		"HasRemove":         hasRem,
		"RemoveNameservers": u.RemoveNameservers,
		"RemoveContacts":    remContacts,
		"RemoveStatuses":    u.RemoveStatuses,
		"HasChange":         hasChg,
		"Registrant":        u.Registrant,
		"NewPassword":       u.Password,
		"HasDNSSEC":         hasDNSSEC,
		"RemoveAllDS":       u.RemoveAllDS,
		"RemoveDS":          remDS,
		"AddDS":             addDS,
	}, nil
}

func validateHosts(hosts []string) error {
	for _, h := range hosts {
		if err := epp.ValidateName(h); err != nil {
			return err
		}
	}
	return nil
}

func contactParams(contacts []epp.DomainContact) ([]command.Params, error) {
	out := make([]command.Params, 0, len(contacts))
	for _, ct := range contacts {
		if !slices.Contains(roles, ct.Type) {
			return nil, fmt.Errorf("%w: contact role %q", epp.ErrInvalidParameter, ct.Type)
		}
		if ct.ID == "" {
			return nil, fmt.Errorf("%w: empty %s contact", epp.ErrInvalidParameter, ct.Type)
		}
		out = append(out, command.Params{"Type": ct.Type, "ID": ct.ID})
	}
	return out, nil
}

// dsParams flattens DS records into template parameters. Numbers are
// rendered as strings so that zero values survive.
func dsParams(records []epp.DSRecord) ([]command.Params, error) {
	out := make([]command.Params, 0, len(records))
	for _, ds := range records {
		if err := dnssec.Validate(ds); err != nil {
			return nil, err
		}
		p := command.Params{
			"KeyTag":     strconv.Itoa(int(ds.KeyTag)),
			"Algorithm":  strconv.Itoa(int(ds.Algorithm)),
			"DigestType": strconv.Itoa(int(ds.DigestType)),
			"Digest":     ds.Digest,
		}
		if k := ds.KeyData; k != nil {
			p["KeyData"] = command.Params{
				"Flags":     strconv.Itoa(int(k.Flags)),
				"Protocol":  strconv.Itoa(int(k.Protocol)),
				"Algorithm": strconv.Itoa(int(k.Algorithm)),
				"PublicKey": k.PublicKey,
			}
		}
		out = append(out, p)
	}
	return out, nil
}
