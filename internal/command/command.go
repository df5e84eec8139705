// Package command renders EPP command documents from embedded templates.
//
// Parameters are escaped before they reach a template so that values can be
// interpolated into element text and attributes verbatim. Falsy values are
// dropped so that template conditionals omit optional elements.
package command

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/rsclarke/goepp/internal/token"
)

//go:embed templates/*.xml templates/partials/*.tmpl
var templatesFS embed.FS

// Template names.
const (
	Hello          = "hello"
	Login          = "login"
	Logout         = "logout"
	ContactCheck   = "contact_check"
	ContactInfo    = "contact_info"
	ContactCreate  = "contact_create"
	ContactDelete  = "contact_delete"
	ContactUpdate  = "contact_update"
	DomainCheck    = "domain_check"
	DomainInfo     = "domain_info"
	DomainCreate   = "domain_create"
	DomainDelete   = "domain_delete"
	DomainRenew    = "domain_renew"
	DomainTransfer = "domain_transfer"
	DomainUpdate   = "domain_update"
	HostCheck      = "host_check"
	HostInfo       = "host_info"
	HostCreate     = "host_create"
	HostDelete     = "host_delete"
	HostUpdate     = "host_update"
	PollRequest    = "poll_request"
	PollAck        = "poll_ack"
)

// Placeholder keys filled in automatically when a template references them
// and the caller left them empty.
const (
	KeyTransactionID = "ClientTransactionID"
	KeyPassword      = "Password"
)

var (
	ErrUnknownTemplate  = errors.New("command: unknown template")
	ErrMissingParameter = errors.New("command: required parameter missing")
)

var (
	transactionIDRef = regexp.MustCompile(`\.` + KeyTransactionID + `\b`)
	passwordRef      = regexp.MustCompile(`\.` + KeyPassword + `\b`)
)

// missingValue is what text/template prints for an absent map key.
const missingValue = "<no value>"

// Params holds template parameters: scalars, lists and nested Params.
type Params map[string]any

type compiled struct {
	tmpl          *template.Template
	wantsTRID     bool
	wantsPassword bool
}

// Renderer renders commands. It is safe for concurrent use once built.
type Renderer struct {
	partials    *template.Template
	templates   map[string]*compiled
	newTRID     func() string
	newPassword func() (string, error)
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTransactionIDFunc overrides clTRID generation.
func WithTransactionIDFunc(fn func() string) RendererOption {
	return func(r *Renderer) { r.newTRID = fn }
}

// WithPasswordFunc overrides authInfo password generation.
func WithPasswordFunc(fn func() (string, error)) RendererOption {
	return func(r *Renderer) { r.newPassword = fn }
}

// NewRenderer parses the embedded command templates.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*compiled),
		newTRID:   token.NewTransactionID,
		newPassword: func() (string, error) {
			return token.GeneratePassword(token.PasswordLength)
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	partials, err := template.ParseFS(templatesFS, "templates/partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	r.partials = partials

	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".xml" {
			continue
		}
		src, err := fs.ReadFile(templatesFS, path.Join("templates", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".xml")
		c, err := r.compile(name, string(src))
		if err != nil {
			return nil, err
		}
		r.templates[name] = c
	}

	return r, nil
}

func (r *Renderer) compile(name, src string) (*compiled, error) {
	base, err := r.partials.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone partials: %w", err)
	}
	tmpl, err := base.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &compiled{
		tmpl:          tmpl,
		wantsTRID:     transactionIDRef.MatchString(src),
		wantsPassword: passwordRef.MatchString(src),
	}, nil
}

// Option adjusts a single render call.
type Option func(Params)

// WithTransactionID sets the clTRID instead of generating one.
func WithTransactionID(id string) Option {
	return func(p Params) {
		if id != "" {
			p[KeyTransactionID] = id
		}
	}
}

// Names returns the names of the embedded templates.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Render executes the named template with params.
func (r *Renderer) Render(name string, params Params, opts ...Option) (string, error) {
	c, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return r.execute(c, params, opts)
}

// RenderString compiles src and executes it with params. The named partials
// are available to src.
func (r *Renderer) RenderString(src string, params Params, opts ...Option) (string, error) {
	c, err := r.compile("inline", src)
	if err != nil {
		return "", err
	}
	return r.execute(c, params, opts)
}

func (r *Renderer) execute(c *compiled, params Params, opts []Option) (string, error) {
	p := make(Params, len(params)+2)
	for k, v := range params {
		p[k] = v
	}
	for _, opt := range opts {
		opt(p)
	}

	if c.wantsTRID && isFalsy(p[KeyTransactionID]) {
		p[KeyTransactionID] = r.newTRID()
	}
	if c.wantsPassword && isFalsy(p[KeyPassword]) {
		pw, err := r.newPassword()
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		p[KeyPassword] = pw
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, Escape(p)); err != nil {
		return "", fmt.Errorf("render %s: %w", c.tmpl.Name(), err)
	}
	out := buf.String()
	if strings.Contains(out, missingValue) {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, c.tmpl.Name())
	}
	return out, nil
}
