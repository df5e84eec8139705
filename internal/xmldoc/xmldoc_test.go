package xmldoc

import (
	"errors"
	"testing"
)

const infoResponse = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>Command completed successfully</msg></result>
    <resData>
      <domain:infData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
        <domain:name>example.nz</domain:name>
        <domain:status s="ok"/>
        <domain:contact type="admin">adm-1</domain:contact>
        <domain:contact type="tech">tech-1</domain:contact>
      </domain:infData>
    </resData>
    <extension>
      <secDNS:infData xmlns:secDNS="urn:ietf:params:xml:ns:secDNS-1.1">
        <secDNS:dsData><secDNS:keyTag>12345</secDNS:keyTag></secDNS:dsData>
      </secDNS:infData>
    </extension>
  </response>
</epp>`

func TestParseLocalNames(t *testing.T) {
	root, err := Parse([]byte(infoResponse))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if root.Name != "epp" {
		t.Fatalf("root = %q, want epp", root.Name)
	}

	if got := root.TextOf("name"); got != "example.nz" {
		t.Errorf("name = %q, want example.nz", got)
	}
	if got := root.Find("result").AttrOr("code"); got != "1000" {
		t.Errorf("code = %q, want 1000", got)
	}

	contacts := root.FindAll("contact")
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	if contacts[1].AttrOr("type") != "tech" || contacts[1].Text != "tech-1" {
		t.Errorf("second contact = %+v", contacts[1])
	}

	resData := root.Find("resData")
	ext := root.Find("extension")
	if resData.Find("infData").Space != "urn:ietf:params:xml:ns:domain-1.0" {
		t.Error("resData infData resolved to wrong element")
	}
	if ext.Find("infData").Space != "urn:ietf:params:xml:ns:secDNS-1.1" {
		t.Error("extension infData resolved to wrong element")
	}
}

func TestNilSafeChains(t *testing.T) {
	var n *Node
	if n.Find("x") != nil || n.Child("x") != nil {
		t.Error("expected nil lookups on nil node")
	}
	if n.TextOf("x") != "" {
		t.Error("expected empty text on nil node")
	}
	if _, ok := n.Attr("x"); ok {
		t.Error("expected missing attribute on nil node")
	}

	root, err := Parse([]byte(`<a><b/></a>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := root.Find("missing").Find("deeper").TextOf("x"); got != "" {
		t.Errorf("chain = %q, want empty", got)
	}
}

func TestChildVersusFind(t *testing.T) {
	root, err := Parse([]byte(`<a><b><c>deep</c></b><c>shallow</c></a>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := root.Find("c").Text; got != "deep" {
		t.Errorf("Find = %q, want deep", got)
	}
	if got := root.Child("c").Text; got != "shallow" {
		t.Errorf("Child = %q, want shallow", got)
	}
	if got := len(root.ChildrenNamed("c")); got != 1 {
		t.Errorf("ChildrenNamed = %d, want 1", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"text only", "hello"},
		{"unclosed", "<epp><response>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := Parse([]byte("  ")); !errors.Is(err, ErrNoElement) {
		t.Errorf("expected ErrNoElement, got %v", err)
	}
}

func TestEntitiesDecoded(t *testing.T) {
	root, err := Parse([]byte(`<msg lang="en">a &amp; b &lt;c&gt;</msg>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if root.Text != "a & b <c>" {
		t.Errorf("Text = %q", root.Text)
	}
	if root.AttrOr("lang") != "en" {
		t.Errorf("lang = %q", root.AttrOr("lang"))
	}
}
