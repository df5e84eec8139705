package epp

import (
	"time"

	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Namespaces of the supported object mappings and extensions.
const (
	NamespaceEPP     = "urn:ietf:params:xml:ns:epp-1.0"
	NamespaceDomain  = "urn:ietf:params:xml:ns:domain-1.0"
	NamespaceContact = "urn:ietf:params:xml:ns:contact-1.0"
	NamespaceHost    = "urn:ietf:params:xml:ns:host-1.0"
	NamespaceSecDNS  = "urn:ietf:params:xml:ns:secDNS-1.1"
)

// DefaultObjectURIs are announced at login unless overridden.
var DefaultObjectURIs = []string{NamespaceDomain, NamespaceContact, NamespaceHost}

// DefaultExtensionURIs are announced at login when the caller passes nil.
var DefaultExtensionURIs = []string{NamespaceSecDNS}

// Greeting is the server's description of itself, sent on connect and in
// reply to hello.
type Greeting struct {
	ServerID      string     `json:"sv_id"`
	ServerDate    *time.Time `json:"sv_date,omitempty"`
	Versions      []string   `json:"versions,omitempty"`
	Languages     []string   `json:"languages,omitempty"`
	ObjectURIs    []string   `json:"obj_uris,omitempty"`
	ExtensionURIs []string   `json:"ext_uris,omitempty"`
	Raw           string     `json:"-"`
}

// Supports reports whether the server announced uri as an object or
// extension namespace.
func (g *Greeting) Supports(uri string) bool {
	if g == nil {
		return false
	}
	for _, u := range g.ObjectURIs {
		if u == uri {
			return true
		}
	}
	for _, u := range g.ExtensionURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// ParseGreeting decodes a greeting document.
func ParseGreeting(raw []byte) (*Greeting, error) {
	root, err := xmldoc.Parse(raw)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	g := root
	if root.Name != "greeting" {
		g = root.Find("greeting")
	}
	if g == nil {
		return nil, missing("greeting")
	}

	date, err := TimeOf(g, "svDate")
	if err != nil {
		return nil, err
	}

	menu := g.Child("svcMenu")
	return &Greeting{
		ServerID:      g.ChildText("svID"),
		ServerDate:    date,
		Versions:      menu.Texts("version"),
		Languages:     menu.Texts("lang"),
		ObjectURIs:    menu.Texts("objURI"),
		ExtensionURIs: menu.Child("svcExtension").Texts("extURI"),
		Raw:           string(raw),
	}, nil
}
