// Package contact implements the EPP contact mapping (RFC 5733).
package contact

import (
	"context"
	"fmt"
	"slices"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// MaxStreets is the number of street lines an address may carry.
const MaxStreets = 3

// Postal info types.
const (
	PostalInternational = "int"
	PostalLocal         = "loc"
)

var disclosable = []string{"name", "org", "addr", "voice", "fax", "email"}

// Contact describes a contact to create.
type Contact struct {
	ID             string
	PostalInfo     epp.PostalInfo
	Voice          string
	VoiceExtension string
	Fax            string
	Email          string
	// Password is the authInfo; one is generated when empty.
	Password string
	// Disclose lists elements named in a disclose block; DiscloseFlag
	// selects whether they are disclosed or withheld.
	Disclose     []string
	DiscloseFlag bool
}

// Update describes changes to an existing contact. Empty fields are left
// unchanged. PostalInfo is nil when name, organization and address are
// all untouched.
type Update struct {
	ID             string
	AddStatuses    []string
	RemoveStatuses []string
	PostalInfo     *epp.PostalInfo
	Voice          string
	Fax            string
	Email          string
	Password       string
}

// Client issues contact commands over an executor.
type Client struct {
	exec     epp.Executor
	renderer *command.Renderer
}

// New returns a contact client.
func New(exec epp.Executor, renderer *command.Renderer) *Client {
	return &Client{exec: exec, renderer: renderer}
}

// Check asks whether each ID can be provisioned. The payload is keyed by
// the IDs as given.
func (c *Client) Check(ctx context.Context, ids []string, opts ...command.Option) (*epp.Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no contact IDs given", epp.ErrInvalidParameter)
	}
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return nil, err
		}
	}

	res, err := epp.Send(ctx, c.exec, c.renderer, command.ContactCheck, command.Params{"IDs": ids}, opts...)
	if err != nil || res.Code != epp.CodeSuccess {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	checks, err := epp.DecodeCheck(doc, "id")
	if err != nil {
		return nil, err
	}
	res.Payload = checks.Rekey(ids)
	return res, nil
}

// Info retrieves a contact. authInfo may be empty for sponsored contacts.
func (c *Client) Info(ctx context.Context, id, authInfo string, opts ...command.Option) (*epp.Result, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	res, err := epp.Send(ctx, c.exec, c.renderer, command.ContactInfo, command.Params{
		"ID":       id,
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

// Create provisions a contact.
func (c *Client) Create(ctx context.Context, ct Contact, opts ...command.Option) (*epp.Result, error) {
	if err := validateID(ct.ID); err != nil {
		return nil, err
	}
	if err := validatePostalInfo(ct.PostalInfo, true); err != nil {
		return nil, err
	}
	if ct.Email == "" {
		return nil, fmt.Errorf("%w: email is required", epp.ErrInvalidParameter)
	}
	for _, d := range ct.Disclose {
		if !slices.Contains(disclosable, d) {
			return nil, fmt.Errorf("%w: %q cannot be disclosed", epp.ErrInvalidParameter, d)
		}
	}

	params := postalInfoParams(ct.PostalInfo)
	params["ID"] = ct.ID
	params["Voice"] = ct.Voice
	params["VoiceExtension"] = ct.VoiceExtension
	params["Fax"] = ct.Fax
	params["Email"] = ct.Email
	params[command.KeyPassword] = ct.Password
	params["Disclose"] = ct.Disclose
	params["DiscloseFlag"] = ct.DiscloseFlag

	res, err := epp.Send(ctx, c.exec, c.renderer, command.ContactCreate, params, opts...)
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
	res.Payload = &epp.ContactCreation{ID: cre.ChildText("id"), Created: created}
	return res, nil
}

// Delete removes a contact.
func (c *Client) Delete(ctx context.Context, id string, opts ...command.Option) (*epp.Result, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return epp.Send(ctx, c.exec, c.renderer, command.ContactDelete, command.Params{"ID": id}, opts...)
}

// Update modifies a contact. At least one change must be requested.
func (c *Client) Update(ctx context.Context, u Update, opts ...command.Option) (*epp.Result, error) {
	if err := validateID(u.ID); err != nil {
		return nil, err
	}
	params, err := updateParams(u)
	if err != nil {
		return nil, err
	}
	return epp.Send(ctx, c.exec, c.renderer, command.ContactUpdate, params, opts...)
}

func updateParams(u Update) (command.Params, error) {
	params := command.Params{
		"ID":             u.ID,
		"HasAdd":         len(u.AddStatuses) > 0,
		"AddStatuses":    u.AddStatuses,
		"HasRemove":      len(u.RemoveStatuses) > 0,
		"RemoveStatuses": u.RemoveStatuses,
		"Voice":          u.Voice,
		"Fax":            u.Fax,
		"Email":          u.Email,
		"NewPassword":    u.Password,
	}

	postalChange := false
	if u.PostalInfo != nil {
		if err := validatePostalInfo(*u.PostalInfo, false); err != nil {
			return nil, err
		}
		for k, v := range postalInfoParams(*u.PostalInfo) {
			params[k] = v
		}
		addressChange := hasAddress(u.PostalInfo.Address)
		params["AddressChange"] = addressChange
		postalChange = addressChange || u.PostalInfo.Name != "" || u.PostalInfo.Organization != ""
		params["PostalInfoChange"] = postalChange
	}

	hasChange := postalChange ||
		u.Voice != "" || u.Fax != "" || u.Email != "" || u.Password != ""
	params["HasChange"] = hasChange

	if !hasChange && len(u.AddStatuses) == 0 && len(u.RemoveStatuses) == 0 {
		return nil, fmt.Errorf("%w: update of %s changes nothing", epp.ErrInvalidParameter, u.ID)
	}
	return params, nil
}

// postalInfoParams flattens a postal info record into template parameters.
func postalInfoParams(pi epp.PostalInfo) command.Params {
	typ := pi.Type
	if typ == "" {
		typ = PostalInternational
	}
	return command.Params{
		"PostalType":   typ,
		"Name":         pi.Name,
		"Organization": pi.Organization,
		"Streets":      pi.Address.Street,
		"City":         pi.Address.City,
		"Province":     pi.Address.Province,
		"PostalCode":   pi.Address.PostalCode,
		"CountryCode":  pi.Address.CountryCode,
	}
}

func hasAddress(a epp.Address) bool {
	return len(a.Street) > 0 || a.City != "" || a.Province != "" || a.PostalCode != "" || a.CountryCode != ""
}

func validatePostalInfo(pi epp.PostalInfo, create bool) error {
	switch pi.Type {
	case "", PostalInternational, PostalLocal:
	default:
		return fmt.Errorf("%w: postal info type %q", epp.ErrInvalidParameter, pi.Type)
	}
	if len(pi.Address.Street) > MaxStreets {
		return fmt.Errorf("%w: at most %d street lines", epp.ErrInvalidParameter, MaxStreets)
	}
	if create && pi.Name == "" {
		return fmt.Errorf("%w: name is required", epp.ErrInvalidParameter)
	}
	if create || hasAddress(pi.Address) {
		if pi.Address.City == "" || pi.Address.CountryCode == "" {
			return fmt.Errorf("%w: an address needs a city and a country code", epp.ErrInvalidParameter)
		}
		if len(pi.Address.CountryCode) != 2 {
			return fmt.Errorf("%w: country code %q", epp.ErrInvalidParameter, pi.Address.CountryCode)
		}
	}
	return nil
}

func validateID(id string) error {
	if n := len(id); n < 3 || n > 16 {
		return fmt.Errorf("%w: contact ID %q must be 3 to 16 characters", epp.ErrInvalidParameter, id)
	}
	return nil
}

func decodeInfo(doc *xmldoc.Node) (*epp.ContactInfo, error) {
	inf := doc.Child("resData").Child("infData")
	if inf == nil {
		return nil, epp.MissingElement("infData")
	}
	id := inf.Child("id")
	if id == nil {
		return nil, epp.MissingElement("id")
	}

	info := &epp.ContactInfo{
		ID:        id.Text,
		ROID:      inf.ChildText("roid"),
		Statuses:  epp.DecodeStatuses(inf),
		Voice:     inf.ChildText("voice"),
		Fax:       inf.ChildText("fax"),
		Email:     inf.ChildText("email"),
		ClientID:  inf.ChildText("clID"),
		CreatorID: inf.ChildText("crID"),
		UpdaterID: inf.ChildText("upID"),
		AuthInfo:  inf.Child("authInfo").ChildText("pw"),
	}
	if v := inf.Child("voice"); v != nil {
		info.VoiceExtension = v.AttrOr("x")
	}

	for _, pi := range inf.ChildrenNamed("postalInfo") {
		addr := pi.Child("addr")
		info.PostalInfo = append(info.PostalInfo, epp.PostalInfo{
			Type:         pi.AttrOr("type"),
			Name:         pi.ChildText("name"),
			Organization: pi.ChildText("org"),
			Address: epp.Address{
				Street:      addr.Texts("street"),
				City:        addr.ChildText("city"),
				Province:    addr.ChildText("sp"),
				PostalCode:  addr.ChildText("pc"),
				CountryCode: addr.ChildText("cc"),
			},
		})
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
