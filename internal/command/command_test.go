package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/rsclarke/goepp/internal/xmldoc"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(
		WithTransactionIDFunc(func() string { return "TRID-1" }),
		WithPasswordFunc(func() (string, error) { return "GeneratedPass123", nil }),
	)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func TestEmbeddedTemplatesParse(t *testing.T) {
	r := newTestRenderer(t)
	want := []string{
		Hello, Login, Logout,
		ContactCheck, ContactInfo, ContactCreate, ContactDelete, ContactUpdate,
		DomainCheck, DomainInfo, DomainCreate, DomainDelete, DomainRenew, DomainTransfer, DomainUpdate,
		HostCheck, HostInfo, HostCreate, HostDelete, HostUpdate,
		PollRequest, PollAck,
	}
	for _, name := range want {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %s not loaded", name)
		}
	}
	if got := len(r.Names()); got != len(want) {
		t.Errorf("loaded %d templates, want %d", got, len(want))
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render("domain_frobnicate", nil)
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestRenderMissingRequiredParameter(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render(DomainDelete, Params{})
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}
}

func TestAutoFillTransactionID(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(DomainDelete, Params{"Name": "example.nz"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<clTRID>TRID-1</clTRID>") {
		t.Errorf("expected generated clTRID, got:\n%s", out)
	}

	out, err = r.Render(DomainDelete, Params{"Name": "example.nz"}, WithTransactionID("ABC-42"))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<clTRID>ABC-42</clTRID>") {
		t.Errorf("expected supplied clTRID, got:\n%s", out)
	}
}

func TestAutoFillUniqueWithDefaults(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		out, err := r.Render(DomainCreate, Params{"Name": "example.nz"})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		doc, err := xmldoc.Parse([]byte(out))
		if err != nil {
			t.Fatalf("rendered XML does not parse: %v", err)
		}
		trid := doc.TextOf("clTRID")
		pw := doc.Find("authInfo").TextOf("pw")
		if len(pw) != 16 {
			t.Errorf("password length = %d, want 16", len(pw))
		}
		if seen[trid] || seen[pw] {
			t.Fatalf("duplicate generated value: trid=%s pw=%s", trid, pw)
		}
		seen[trid] = true
		seen[pw] = true
	}
}

func TestPasswordNotFilledForUpdate(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.Render(DomainUpdate, Params{"Name": "example.nz"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(out, "GeneratedPass123") || strings.Contains(out, "authInfo") {
		t.Errorf("update must not carry a generated password:\n%s", out)
	}
}

func TestEscaping(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"ampersand", "hi&", "hi&amp;"},
		{"angle brackets", "<world>", "&lt;world&gt;"},
		{"quotes", `a"b'c`, "a&#34;b&#39;c"},
		{"plain", "example.nz", "example.nz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(Params{"v": tt.in})["v"]
			if got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeRecursive(t *testing.T) {
	in := Params{
		"list":   []string{"hi&", "<world>"},
		"nested": Params{"inner": "a<b", "deeper": map[string]any{"x": "&"}},
		"rows":   []Params{{"ID": "<c1>"}},
		"flag":   true,
		"count":  3,
		"empty":  "",
		"none":   nil,
		"no":     false,
		"zero":   0,
		"nolist": []string{},
	}
	out := Escape(in)

	list := out["list"].([]string)
	if list[0] != "hi&amp;" || list[1] != "&lt;world&gt;" {
		t.Errorf("list = %v", list)
	}
	nested := out["nested"].(Params)
	if nested["inner"] != "a&lt;b" {
		t.Errorf("nested inner = %v", nested["inner"])
	}
	if nested["deeper"].(Params)["x"] != "&amp;" {
		t.Errorf("deeper = %v", nested["deeper"])
	}
	if out["rows"].([]Params)[0]["ID"] != "&lt;c1&gt;" {
		t.Errorf("rows = %v", out["rows"])
	}
	if out["flag"] != true || out["count"] != 3 {
		t.Errorf("flags changed: flag=%v count=%v", out["flag"], out["count"])
	}
	for _, k := range []string{"empty", "none", "no", "zero", "nolist"} {
		if _, ok := out[k]; ok {
			t.Errorf("falsy key %q should be dropped", k)
		}
	}
	if in["list"].([]string)[0] != "hi&" {
		t.Error("Escape modified its input")
	}
}

func TestRenderedHostileValuesReparse(t *testing.T) {
	r := newTestRenderer(t)
	hostile := []string{
		`</domain:name><domain:evil/>`,
		`a & b`,
		`"quoted" 'single'`,
		`<![CDATA[x]]>`,
	}

	for _, h := range hostile {
		out, err := r.Render(ContactInfo, Params{"ID": h, "AuthInfo": h})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		doc, err := xmldoc.Parse([]byte(out))
		if err != nil {
			t.Fatalf("rendered XML does not parse for %q: %v", h, err)
		}
		if got := doc.TextOf("id"); got != h {
			t.Errorf("id round trip = %q, want %q", got, h)
		}
		if got := doc.Find("authInfo").TextOf("pw"); got != h {
			t.Errorf("pw round trip = %q, want %q", got, h)
		}
		if doc.Find("evil") != nil {
			t.Errorf("injected element present for %q", h)
		}
	}
}

func TestRenderString(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.RenderString(`<x a="{{.A}}">{{.B}}</x><t>{{.ClientTransactionID}}</t>`, Params{"A": `"`, "B": "<"})
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if want := `<x a="&#34;">&lt;</x><t>TRID-1</t>`; out != want {
		t.Errorf("RenderString = %q, want %q", out, want)
	}
}

func TestRenderLogin(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.Render(Login, Params{
		"ClientID":       "registrar",
		"ClientPassword": "secret",
		"Version":        "1.0",
		"Language":       "en",
		"ObjectURIs":     []string{"urn:ietf:params:xml:ns:domain-1.0", "urn:ietf:params:xml:ns:contact-1.0"},
		"ExtensionURIs":  []string{"urn:ietf:params:xml:ns:secDNS-1.1"},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	doc, err := xmldoc.Parse([]byte(out))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.TextOf("clID") != "registrar" || doc.TextOf("pw") != "secret" {
		t.Errorf("credentials not rendered:\n%s", out)
	}
	if doc.Find("newPW") != nil {
		t.Error("newPW rendered without a new password")
	}
	if got := len(doc.FindAll("objURI")); got != 2 {
		t.Errorf("objURI count = %d, want 2", got)
	}
	if got := doc.TextOf("extURI"); got != "urn:ietf:params:xml:ns:secDNS-1.1" {
		t.Errorf("extURI = %q", got)
	}
	if strings.Contains(out, "GeneratedPass123") {
		t.Error("login must not receive a generated password")
	}
}

func TestDomainUpdateContainers(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name    string
		params  Params
		present []string
		absent  []string
	}{
		{
			name:    "status only",
			params:  Params{"Name": "a.nz", "HasAdd": true, "AddStatuses": []Params{{"Value": "clientHold"}}},
			present: []string{"add", "status"},
			absent:  []string{"rem", "chg", "extension"},
		},
		{
			name:    "registrant only",
			params:  Params{"Name": "a.nz", "HasChange": true, "Registrant": "c1"},
			present: []string{"chg", "registrant"},
			absent:  []string{"add", "rem", "authInfo"},
		},
		{
			name: "remove all ds",
			params: Params{
				"Name": "a.nz", "HasDNSSEC": true, "RemoveAllDS": true,
				"AddDS": []Params{{"KeyTag": "12345", "Algorithm": "13", "DigestType": "2", "Digest": "ABCD"}},
			},
			present: []string{"extension", "all", "dsData"},
			absent:  []string{"add", "chg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(DomainUpdate, tt.params)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			doc, err := xmldoc.Parse([]byte(out))
			if err != nil {
				t.Fatalf("parse: %v\n%s", err, out)
			}
			cmd := doc.Find("command")
			inner := cmd.Child("update").Child("update")
			for _, name := range tt.present {
				if cmd.Find(name) == nil {
					t.Errorf("expected <%s> in:\n%s", name, out)
				}
			}
			for _, name := range tt.absent {
				found := inner.Find(name)
				if name == "extension" {
					found = cmd.Child(name)
				}
				if found != nil {
					t.Errorf("unexpected <%s> in:\n%s", name, out)
				}
			}
		})
	}
}

func TestDomainInfoHostsDefault(t *testing.T) {
	r := newTestRenderer(t)
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"default", Params{"Name": "example.nz"}, `hosts="all"`},
		{"explicit", Params{"Name": "example.nz", "Hosts": "del"}, `hosts="del"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(DomainInfo, tt.params)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %s:\n%s", tt.want, out)
			}
		})
	}
}
