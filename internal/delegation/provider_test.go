package delegation

import (
	"context"
	"errors"
	"testing"

	"github.com/libdns/libdns"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rsclarke/goepp/internal/domain"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/registrytest"
	"github.com/rsclarke/goepp/internal/testutil/epptest"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

const dsData = "60485 5 1 2BB183AF5F22588179A53B0A98631FAD1A292118"

const infoBody = `<resData>
<domain:infData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
  <domain:name>example.nz</domain:name>
  <domain:roid>1-INZ</domain:roid>
  <domain:ns>
    <domain:hostObj>ns1.example.net</domain:hostObj>
    <domain:hostObj>NS2.example.net</domain:hostObj>
  </domain:ns>
  <domain:clID>933</domain:clID>
</domain:infData>
</resData>
<extension>
<secDNS:infData xmlns:secDNS="urn:ietf:params:xml:ns:secDNS-1.1">
  <secDNS:dsData>
    <secDNS:keyTag>60485</secDNS:keyTag>
    <secDNS:alg>5</secDNS:alg>
    <secDNS:digestType>1</secDNS:digestType>
    <secDNS:digest>2BB183AF5F22588179A53B0A98631FAD1A292118</secDNS:digest>
  </secDNS:dsData>
</secDNS:infData>
</extension>`

func newProvider(t *testing.T, handler registrytest.Handler) (*Provider, *epptest.Executor) {
	t.Helper()
	exec := &epptest.Executor{Handler: handler}
	return &Provider{Domains: domain.New(exec, epptest.Renderer(t))}, exec
}

func updateOf(t *testing.T, exec *epptest.Executor) (inner, ext *xmldoc.Node) {
	t.Helper()
	cmd := exec.Last(t).Child("command")
	return cmd.Child("update").Child("update"), cmd.Child("extension").Child("update")
}

func TestGetRecords(t *testing.T) {
	p, exec := newProvider(t, registrytest.Respond(1000, "ok", infoBody))

	recs, err := p.GetRecords(context.Background(), "Example.NZ.")
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	want := []libdns.RR{
		{Name: "@", Type: "NS", Data: "ns1.example.net."},
		{Name: "@", Type: "NS", Data: "NS2.example.net."},
		{Name: "@", Type: "DS", Data: dsData},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, r := range recs {
		if got := r.RR(); got != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got, want[i])
		}
	}
	if got := exec.Last(t).TextOf("name"); got != "example.nz" {
		t.Errorf("queried %q", got)
	}
}

func TestGetRecordsNonSuccess(t *testing.T) {
	p, _ := newProvider(t, registrytest.Respond(2303, "Object does not exist", ""))

	_, err := p.GetRecords(context.Background(), "missing.nz")
	var cmdErr *epp.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != epp.CodeObjectDoesNotExist {
		t.Fatalf("expected CommandError 2303, got %v", err)
	}
}

func TestAppendRecords(t *testing.T) {
	p, exec := newProvider(t, registrytest.Respond(1000, "ok", ""))

	recs := []libdns.Record{
		libdns.NS{Name: "@", Target: "NS3.Example.net."},
		libdns.RR{Name: "example.nz.", Type: "DS", Data: dsData},
		libdns.TXT{Name: "@", Text: "skipped"},
		libdns.NS{Name: "sub", Target: "ns.elsewhere.net."},
	}
	got, err := p.AppendRecords(context.Background(), "example.nz", recs)
	if err != nil {
		t.Fatalf("AppendRecords failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("applied %d records, want 2", len(got))
	}

	inner, ext := updateOf(t, exec)
	if ns := inner.Child("add").TextOf("hostObj"); ns != "ns3.example.net" {
		t.Errorf("added nameserver = %q", ns)
	}
	if tag := ext.Child("add").TextOf("keyTag"); tag != "60485" {
		t.Errorf("added key tag = %q", tag)
	}
}

func TestUpdateLogsDomain(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p, _ := newProvider(t, registrytest.Respond(1000, "ok", ""))
	p.Logger = zap.New(core)

	recs := []libdns.Record{libdns.NS{Name: "@", Target: "ns3.example.net."}}
	if _, err := p.AppendRecords(context.Background(), "example.nz.", recs); err != nil {
		t.Fatalf("AppendRecords failed: %v", err)
	}

	entries := logs.FilterMessage("delegation updated").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["domain"] != "example.nz" {
		t.Errorf("domain field = %v", fields["domain"])
	}
}

func TestAppendNothing(t *testing.T) {
	p, exec := newProvider(t, registrytest.Respond(1000, "ok", ""))

	got, err := p.AppendRecords(context.Background(), "example.nz", []libdns.Record{
		libdns.TXT{Name: "@", Text: "x"},
	})
	if err != nil || got != nil {
		t.Fatalf("AppendRecords = %v, %v", got, err)
	}
	if len(exec.Requests()) != 0 {
		t.Error("no command should be sent")
	}
}

func TestAppendInvalidDS(t *testing.T) {
	p, _ := newProvider(t, registrytest.Respond(1000, "ok", ""))

	_, err := p.AppendRecords(context.Background(), "example.nz", []libdns.Record{
		libdns.RR{Name: "@", Type: "DS", Data: "60485 5 1 ZZ"},
	})
	if !errors.Is(err, epp.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestAppendRejected(t *testing.T) {
	p, _ := newProvider(t, registrytest.Respond(2304, "Object status prohibits operation", ""))

	_, err := p.AppendRecords(context.Background(), "example.nz", []libdns.Record{
		libdns.NS{Name: "@", Target: "ns3.example.net."},
	})
	var cmdErr *epp.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Command != "domain:update" {
		t.Fatalf("expected domain:update CommandError, got %v", err)
	}
}

func TestDeleteRecords(t *testing.T) {
	p, exec := newProvider(t, registrytest.Respond(1000, "ok", ""))

	_, err := p.DeleteRecords(context.Background(), "example.nz", []libdns.Record{
		libdns.NS{Name: "@", Target: "ns1.example.net."},
		libdns.RR{Name: "@", Type: "DS", Data: dsData},
	})
	if err != nil {
		t.Fatalf("DeleteRecords failed: %v", err)
	}
	inner, ext := updateOf(t, exec)
	if ns := inner.Child("rem").TextOf("hostObj"); ns != "ns1.example.net" {
		t.Errorf("removed nameserver = %q", ns)
	}
	if tag := ext.Child("rem").TextOf("keyTag"); tag != "60485" {
		t.Errorf("removed key tag = %q", tag)
	}
}

func TestDeleteAll(t *testing.T) {
	p, exec := newProvider(t, registrytest.Sequence(
		registrytest.Respond(1000, "ok", infoBody),
		registrytest.Respond(1000, "ok", ""),
	))

	_, err := p.DeleteRecords(context.Background(), "example.nz", []libdns.Record{
		libdns.RR{Name: "@", Type: "NS"},
		libdns.RR{Name: "@", Type: "DS"},
	})
	if err != nil {
		t.Fatalf("DeleteRecords failed: %v", err)
	}
	if n := len(exec.Requests()); n != 2 {
		t.Fatalf("sent %d commands, want info then update", n)
	}
	inner, ext := updateOf(t, exec)
	if hosts := inner.Child("rem").Texts("hostObj"); len(hosts) != 2 {
		t.Errorf("removed nameservers = %v", hosts)
	}
	if ext.Child("rem").TextOf("all") != "true" {
		t.Error("expected <secDNS:all>")
	}
}

func TestAbsoluteName(t *testing.T) {
	tests := []struct {
		zone, name, want string
	}{
		{"example.nz.", "@", "example.nz"},
		{"example.nz", "", "example.nz"},
		{"example.nz", "www", "www.example.nz"},
		{"Example.NZ.", "WWW.example.nz.", "www.example.nz"},
		{"example.nz", "badexample.nz", "badexample.nz.example.nz"},
	}
	for _, tt := range tests {
		if got := absoluteName(tt.zone, tt.name); got != tt.want {
			t.Errorf("absoluteName(%q, %q) = %q, want %q", tt.zone, tt.name, got, tt.want)
		}
	}
}
