package epp

import "time"

// Payload is the object-specific data attached to a successful Result.
// It is implemented only by the record types in this package.
type Payload interface {
	payload()
}

// Availability is one entry of a check response.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// CheckResults maps each checked name or ID to its availability.
type CheckResults map[string]Availability

// Status is an object status value with its optional description.
type Status struct {
	Value       string `json:"s"`
	Lang        string `json:"lang,omitempty"`
	Description string `json:"description,omitempty"`
}

// Address is a contact postal address.
type Address struct {
	Street      []string `json:"street,omitempty"`
	City        string   `json:"city,omitempty"`
	Province    string   `json:"sp,omitempty"`
	PostalCode  string   `json:"pc,omitempty"`
	CountryCode string   `json:"cc,omitempty"`
}

// PostalInfo is a contact name and address in either the localized ("loc")
// or internationalized ("int") form.
type PostalInfo struct {
	Type         string  `json:"type"`
	Name         string  `json:"name,omitempty"`
	Organization string  `json:"org,omitempty"`
	Address      Address `json:"addr"`
}

// ContactInfo is the payload of a contact info response.
type ContactInfo struct {
	ID             string       `json:"id"`
	ROID           string       `json:"roid,omitempty"`
	Statuses       []Status     `json:"statuses,omitempty"`
	PostalInfo     []PostalInfo `json:"postal_info,omitempty"`
	Voice          string       `json:"voice,omitempty"`
	VoiceExtension string       `json:"voice_ext,omitempty"`
	Fax            string       `json:"fax,omitempty"`
	Email          string       `json:"email,omitempty"`
	ClientID       string       `json:"cl_id,omitempty"`
	CreatorID      string       `json:"cr_id,omitempty"`
	Created        *time.Time   `json:"cr_date,omitempty"`
	UpdaterID      string       `json:"up_id,omitempty"`
	Updated        *time.Time   `json:"up_date,omitempty"`
	Transferred    *time.Time   `json:"tr_date,omitempty"`
	AuthInfo       string       `json:"auth_info,omitempty"`
}

// ContactCreation is the payload of a contact create response.
type ContactCreation struct {
	ID      string     `json:"id"`
	Created *time.Time `json:"cr_date,omitempty"`
}

// DomainContact associates a contact ID with a domain role.
type DomainContact struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// KeyData is a DNSSEC public key (RFC 5910).
type KeyData struct {
	Flags     uint16 `json:"flags"`
	Protocol  uint8  `json:"protocol"`
	Algorithm uint8  `json:"alg"`
	PublicKey string `json:"pub_key"`
}

// DSRecord is a delegation signer record (RFC 5910), optionally carrying
// the key it was derived from.
type DSRecord struct {
	KeyTag     uint16   `json:"key_tag"`
	Algorithm  uint8    `json:"alg"`
	DigestType uint8    `json:"digest_type"`
	Digest     string   `json:"digest"`
	KeyData    *KeyData `json:"key_data,omitempty"`
}

// DomainInfo is the payload of a domain info response.
type DomainInfo struct {
	Name        string          `json:"name"`
	ROID        string          `json:"roid,omitempty"`
	Statuses    []Status        `json:"statuses,omitempty"`
	Registrant  string          `json:"registrant,omitempty"`
	Contacts    []DomainContact `json:"contacts,omitempty"`
	Nameservers []string        `json:"ns,omitempty"`
	Hosts       []string        `json:"hosts,omitempty"`
	ClientID    string          `json:"cl_id,omitempty"`
	CreatorID   string          `json:"cr_id,omitempty"`
	Created     *time.Time      `json:"cr_date,omitempty"`
	UpdaterID   string          `json:"up_id,omitempty"`
	Updated     *time.Time      `json:"up_date,omitempty"`
	Expires     *time.Time      `json:"ex_date,omitempty"`
	Transferred *time.Time      `json:"tr_date,omitempty"`
	AuthInfo    string          `json:"auth_info,omitempty"`
	DSData      []DSRecord      `json:"ds_data,omitempty"`
	KeyData     []KeyData       `json:"key_data,omitempty"`
	MaxSigLife  int             `json:"max_sig_life,omitempty"`
}

// ContactIDs returns the IDs of the contacts holding role.
func (d *DomainInfo) ContactIDs(role string) []string {
	var ids []string
	for _, c := range d.Contacts {
		if c.Type == role {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// DomainCreation is the payload of a domain create response.
type DomainCreation struct {
	Name    string     `json:"name"`
	Created *time.Time `json:"cr_date,omitempty"`
	Expires *time.Time `json:"ex_date,omitempty"`
}

// DomainRenewal is the payload of a domain renew response.
type DomainRenewal struct {
	Name    string     `json:"name"`
	Expires *time.Time `json:"ex_date,omitempty"`
}

// DomainTransfer is the payload of a domain transfer response.
type DomainTransfer struct {
	Name            string     `json:"name"`
	Status          string     `json:"tr_status"`
	RequestClientID string     `json:"re_id,omitempty"`
	Requested       *time.Time `json:"re_date,omitempty"`
	ActionClientID  string     `json:"ac_id,omitempty"`
	ActionDate      *time.Time `json:"ac_date,omitempty"`
	Expires         *time.Time `json:"ex_date,omitempty"`
}

// HostAddress is a host IP address tagged "v4" or "v6".
type HostAddress struct {
	Version string `json:"ip"`
	Address string `json:"addr"`
}

// HostInfo is the payload of a host info response.
type HostInfo struct {
	Name        string        `json:"name"`
	ROID        string        `json:"roid,omitempty"`
	Statuses    []Status      `json:"statuses,omitempty"`
	Addresses   []HostAddress `json:"addrs,omitempty"`
	ClientID    string        `json:"cl_id,omitempty"`
	CreatorID   string        `json:"cr_id,omitempty"`
	Created     *time.Time    `json:"cr_date,omitempty"`
	UpdaterID   string        `json:"up_id,omitempty"`
	Updated     *time.Time    `json:"up_date,omitempty"`
	Transferred *time.Time    `json:"tr_date,omitempty"`
}

// HostCreation is the payload of a host create response.
type HostCreation struct {
	Name    string     `json:"name"`
	Created *time.Time `json:"cr_date,omitempty"`
}

// Message is a service message body.
type Message struct {
	Lang string `json:"lang,omitempty"`
	Text string `json:"text"`
}

// MessageQueue is the payload of poll responses.
type MessageQueue struct {
	Count     int        `json:"count"`
	ID        string     `json:"id,omitempty"`
	QueueDate *time.Time `json:"q_date,omitempty"`
	Messages  []Message  `json:"messages,omitempty"`
}

func (CheckResults) payload()     {}
func (*ContactInfo) payload()     {}
func (*ContactCreation) payload() {}
func (*DomainInfo) payload()      {}
func (*DomainCreation) payload()  {}
func (*DomainRenewal) payload()   {}
func (*DomainTransfer) payload()  {}
func (*HostInfo) payload()        {}
func (*HostCreation) payload()    {}
func (*MessageQueue) payload()    {}
