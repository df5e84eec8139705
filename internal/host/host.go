// Package host implements the EPP host mapping (RFC 5732).
package host

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// IP versions as written in the ip attribute.
const (
	IPv4 = "v4"
	IPv6 = "v6"
)

// Create describes a host to create. Addresses are required only for hosts
// subordinate to a domain of this registry.
type Create struct {
	Name      string
	Addresses []string
}

// Update describes changes to a host.
type Update struct {
	Name            string
	AddAddresses    []string
	RemoveAddresses []string
	AddStatuses     []string
	RemoveStatuses  []string
	NewName         string
}

// Client issues host commands over an executor.
type Client struct {
	exec     epp.Executor
	renderer *command.Renderer
}

// New returns a host client.
func New(exec epp.Executor, renderer *command.Renderer) *Client {
	return &Client{exec: exec, renderer: renderer}
}

// Check asks whether each host name can be provisioned.
func (c *Client) Check(ctx context.Context, names []string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateNames(names); err != nil {
		return nil, err
	}
	res, err := epp.Send(ctx, c.exec, c.renderer, command.HostCheck, command.Params{"Names": names}, opts...)
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

// Info retrieves a host.
func (c *Client) Info(ctx context.Context, name string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(name); err != nil {
		return nil, err
	}
	res, err := epp.Send(ctx, c.exec, c.renderer, command.HostInfo, command.Params{"Name": name}, opts...)
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

// Create provisions a host.
func (c *Client) Create(ctx context.Context, cr Create, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(cr.Name); err != nil {
		return nil, err
	}
	addrs, err := addressParams(cr.Addresses)
	if err != nil {
		return nil, err
	}

	res, err := epp.Send(ctx, c.exec, c.renderer, command.HostCreate, command.Params{
		"Name":      cr.Name,
		"Addresses": addrs,
	}, opts...)
	if err != nil || res.Code != epp.CodeSuccess {
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
	created, err := epp.TimeOf(cre, "crDate")
	if err != nil {
		return nil, err
	}
	res.Payload = &epp.HostCreation{Name: cre.ChildText("name"), Created: created}
	return res, nil
}

// Delete removes a host.
func (c *Client) Delete(ctx context.Context, name string, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(name); err != nil {
		return nil, err
	}
	return epp.Send(ctx, c.exec, c.renderer, command.HostDelete, command.Params{"Name": name}, opts...)
}

// Update modifies a host. At least one change must be requested.
func (c *Client) Update(ctx context.Context, u Update, opts ...command.Option) (*epp.Result, error) {
	if err := epp.ValidateName(u.Name); err != nil {
		return nil, err
	}
	if u.NewName != "" {
		if err := epp.ValidateName(u.NewName); err != nil {
			return nil, err
		}
	}
	add, err := addressParams(u.AddAddresses)
	if err != nil {
		return nil, err
	}
	rem, err := addressParams(u.RemoveAddresses)
	if err != nil {
		return nil, err
	}

	hasAdd := len(add) > 0 || len(u.AddStatuses) > 0
	hasRem := len(rem) > 0 || len(u.RemoveStatuses) > 0
	hasChg := u.NewName != ""
	if !hasAdd && !hasRem && !hasChg {
		return nil, fmt.Errorf("%w: update of %s changes nothing", epp.ErrInvalidParameter, u.Name)
	}

	return epp.Send(ctx, c.exec, c.renderer, command.HostUpdate, command.Params{
		"Name":            u.Name,
		"HasAdd":          hasAdd,
		"AddAddresses":    add,
		"AddStatuses":     u.AddStatuses,
		"HasRemove":       hasRem,
		"RemoveAddresses": rem,
		"RemoveStatuses":  u.RemoveStatuses,
		"HasChange":       hasChg,
		"NewName":         u.NewName,
	}, opts...)
}

// Address tags a textual IP address with its version.
func Address(s string) (epp.HostAddress, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return epp.HostAddress{}, fmt.Errorf("%w: %w", epp.ErrInvalidParameter, err)
	}
	if ip.Zone() != "" {
		return epp.HostAddress{}, fmt.Errorf("%w: %s has a zone", epp.ErrInvalidParameter, s)
	}
	ip = ip.Unmap()
	if ip.Is4() {
		return epp.HostAddress{Version: IPv4, Address: ip.String()}, nil
	}
	return epp.HostAddress{Version: IPv6, Address: ip.String()}, nil
}

func addressParams(addrs []string) ([]command.Params, error) {
	out := make([]command.Params, 0, len(addrs))
	for _, s := range addrs {
		a, err := Address(s)
		if err != nil {
			return nil, err
		}
		out = append(out, command.Params{"Version": a.Version, "Address": a.Address})
	}
	return out, nil
}

func decodeInfo(doc *xmldoc.Node) (*epp.HostInfo, error) {
	inf := doc.Child("resData").Child("infData")
	if inf == nil {
		return nil, epp.MissingElement("infData")
	}
	name := inf.Child("name")
	if name == nil {
		return nil, epp.MissingElement("name")
	}

	info := &epp.HostInfo{
		Name:      name.Text,
		ROID:      inf.ChildText("roid"),
		Statuses:  epp.DecodeStatuses(inf),
		ClientID:  inf.ChildText("clID"),
		CreatorID: inf.ChildText("crID"),
		UpdaterID: inf.ChildText("upID"),
	}
	for _, a := range inf.ChildrenNamed("addr") {
		version := a.AttrOr("ip")
		if version == "" {
			version = IPv4
		}
		info.Addresses = append(info.Addresses, epp.HostAddress{Version: version, Address: a.Text})
	}

	var err error
	if info.Created, err = epp.TimeOf(inf, "crDate"); err != nil {
		return nil, err
	}
	if info.Updated, err = epp.TimeOf(inf, "upDate"); err != nil {
		return nil, err
	}
	if info.Transferred, err = epp.TimeOf(inf, "trDate"); err != nil {
		return nil, err
	}
	return info, nil
}
