package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/registrytest"
	"github.com/rsclarke/goepp/internal/testutil/epptest"
)

const infoBody = `<resData>
<contact:infData xmlns:contact="urn:ietf:params:xml:ns:contact-1.0">
  <contact:id>sh8013</contact:id>
  <contact:roid>SH8013-REP</contact:roid>
  <contact:status s="linked"/>
  <contact:status s="clientDeleteProhibited"/>
  <contact:postalInfo type="int">
    <contact:name>John Doe</contact:name>
    <contact:org>Example Inc.</contact:org>
    <contact:addr>
      <contact:street>123 Example Dr.</contact:street>
      <contact:street>Suite 100</contact:street>
      <contact:city>Dulles</contact:city>
      <contact:sp>VA</contact:sp>
      <contact:pc>20166-6503</contact:pc>
      <contact:cc>US</contact:cc>
    </contact:addr>
  </contact:postalInfo>
  <contact:voice x="1234">+1.7035555555</contact:voice>
  <contact:fax>+1.7035555556</contact:fax>
  <contact:email>jdoe@example.com</contact:email>
  <contact:clID>ClientY</contact:clID>
  <contact:crID>ClientX</contact:crID>
  <contact:crDate>1999-04-03T22:00:00.0Z</contact:crDate>
  <contact:upID>ClientX</contact:upID>
  <contact:upDate>1999-12-03T09:00:00.0Z</contact:upDate>
  <contact:trDate>2000-04-08T09:00:00.0Z</contact:trDate>
  <contact:authInfo><contact:pw>2fooBAR</contact:pw></contact:authInfo>
</contact:infData>
</resData>`

func newClient(t *testing.T, handler registrytest.Handler) (*Client, *epptest.Executor) {
	t.Helper()
	exec := &epptest.Executor{Handler: handler}
	return New(exec, epptest.Renderer(t)), exec
}

func TestCheck(t *testing.T) {
	body := `<resData><contact:chkData xmlns:contact="urn:ietf:params:xml:ns:contact-1.0">
  <contact:cd><contact:id avail="1">sh8013</contact:id></contact:cd>
  <contact:cd><contact:id avail="0">sah8013</contact:id><contact:reason>In use</contact:reason></contact:cd>
</contact:chkData></resData>`
	c, exec := newClient(t, registrytest.Respond(1000, "ok", body))

	res, err := c.Check(context.Background(), []string{"sh8013", "sah8013"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	checks, ok := res.Payload.(epp.CheckResults)
	if !ok {
		t.Fatalf("payload is %T", res.Payload)
	}
	if !checks["sh8013"].Available || checks["sh8013"].Reason != "" {
		t.Errorf("sh8013 = %+v", checks["sh8013"])
	}
	if checks["sah8013"].Available || checks["sah8013"].Reason != "In use" {
		t.Errorf("sah8013 = %+v", checks["sah8013"])
	}
	if ids := exec.Last(t).FindAll("id"); len(ids) != 2 {
		t.Errorf("request carried %d ids", len(ids))
	}
}

func TestCheckKeyedByQueriedID(t *testing.T) {
	body := `<resData><contact:chkData xmlns:contact="urn:ietf:params:xml:ns:contact-1.0">
  <contact:cd><contact:id avail="0">ABC123</contact:id><contact:reason>In use</contact:reason></contact:cd>
</contact:chkData></resData>`
	c, _ := newClient(t, registrytest.Respond(1000, "ok", body))

	res, err := c.Check(context.Background(), []string{"abc123"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	checks := res.Payload.(epp.CheckResults)
	got, ok := checks["abc123"]
	if !ok || len(checks) != 1 {
		t.Fatalf("checks = %v, want a single abc123 entry", checks)
	}
	if got.Available || got.Reason != "In use" {
		t.Errorf("abc123 = %+v", got)
	}
}

func TestCheckRejectsBadIDs(t *testing.T) {
	c, exec := newClient(t, registrytest.Respond(1000, "ok", ""))
	for _, ids := range [][]string{nil, {"ab"}, {"sh8013", strings.Repeat("x", 17)}} {
		if _, err := c.Check(context.Background(), ids); !errors.Is(err, epp.ErrInvalidParameter) {
			t.Errorf("Check(%v) = %v, want ErrInvalidParameter", ids, err)
		}
	}
	if n := len(exec.Requests()); n != 0 {
		t.Errorf("%d commands sent for invalid input", n)
	}
}

func TestInfo(t *testing.T) {
	c, exec := newClient(t, registrytest.Respond(1000, "ok", infoBody))

	res, err := c.Info(context.Background(), "sh8013", "2fooBAR")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	info, ok := res.Payload.(*epp.ContactInfo)
	if !ok {
		t.Fatalf("payload is %T", res.Payload)
	}

	if info.ID != "sh8013" || info.ROID != "SH8013-REP" {
		t.Errorf("id/roid = %q/%q", info.ID, info.ROID)
	}
	if len(info.Statuses) != 2 || info.Statuses[1].Value != "clientDeleteProhibited" {
		t.Errorf("statuses = %+v", info.Statuses)
	}
	if len(info.PostalInfo) != 1 {
		t.Fatalf("postal info = %+v", info.PostalInfo)
	}
	pi := info.PostalInfo[0]
	if pi.Type != "int" || pi.Name != "John Doe" || pi.Organization != "Example Inc." {
		t.Errorf("postal info = %+v", pi)
	}
	if len(pi.Address.Street) != 2 || pi.Address.City != "Dulles" || pi.Address.CountryCode != "US" {
		t.Errorf("address = %+v", pi.Address)
	}
	if info.Voice != "+1.7035555555" || info.VoiceExtension != "1234" {
		t.Errorf("voice = %q x %q", info.Voice, info.VoiceExtension)
	}
	if info.Email != "jdoe@example.com" || info.AuthInfo != "2fooBAR" {
		t.Errorf("email/auth = %q/%q", info.Email, info.AuthInfo)
	}
	if info.Created == nil || info.Created.Year() != 1999 || info.Transferred == nil {
		t.Errorf("dates = %v %v", info.Created, info.Transferred)
	}

	if got := exec.Last(t).TextOf("pw"); got != "2fooBAR" {
		t.Errorf("request authInfo = %q", got)
	}
}

func TestInfoNonSuccessReturnsResult(t *testing.T) {
	c, _ := newClient(t, registrytest.Respond(2303, "Object does not exist", ""))

	res, err := c.Info(context.Background(), "missing1", "")
	if err != nil {
		t.Fatalf("business failure must not be an error: %v", err)
	}
	if res.Code != epp.CodeObjectDoesNotExist || res.Payload != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestInfoMissingData(t *testing.T) {
	c, _ := newClient(t, registrytest.Respond(1000, "ok", `<resData/>`))

	_, err := c.Info(context.Background(), "sh8013", "")
	var perr *epp.ProtocolError
	if !errors.As(err, &perr) || !errors.Is(err, epp.ErrMissingElement) {
		t.Fatalf("expected missing element protocol error, got %v", err)
	}
}

func validContact() Contact {
	return Contact{
		ID: "sh8013",
		PostalInfo: epp.PostalInfo{
			Name:         "John Doe",
			Organization: "Example & Co",
			Address: epp.Address{
				Street:      []string{"123 Example Dr.", "Suite 100"},
				City:        "Dulles",
				CountryCode: "US",
			},
		},
		Voice:        "+1.7035555555",
		Email:        "jdoe@example.com",
		Disclose:     []string{"voice", "addr"},
		DiscloseFlag: false,
	}
}

func TestCreate(t *testing.T) {
	body := `<resData><contact:creData xmlns:contact="urn:ietf:params:xml:ns:contact-1.0">
  <contact:id>sh8013</contact:id><contact:crDate>1999-04-03T22:00:00.0Z</contact:crDate>
</contact:creData></resData>`
	c, exec := newClient(t, registrytest.Respond(1000, "ok", body))

	res, err := c.Create(context.Background(), validContact())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	cre, ok := res.Payload.(*epp.ContactCreation)
	if !ok || cre.ID != "sh8013" || cre.Created == nil {
		t.Fatalf("payload = %+v", res.Payload)
	}

	req := exec.Last(t)
	if got := req.Find("postalInfo").AttrOr("type"); got != "int" {
		t.Errorf("postal type = %q", got)
	}
	if got := req.TextOf("org"); got != "Example & Co" {
		t.Errorf("org = %q", got)
	}
	if got := req.TextOf("pw"); len(got) != 16 {
		t.Errorf("generated password %q", got)
	}
	disclose := req.Find("disclose")
	if disclose.AttrOr("flag") != "0" {
		t.Errorf("disclose flag = %q", disclose.AttrOr("flag"))
	}
	if disclose.Child("addr").AttrOr("type") != "int" {
		t.Error("addr disclosure needs the postal type")
	}
	if _, ok := disclose.Child("voice").Attr("type"); ok {
		t.Error("voice disclosure has no type")
	}
	if req.Find("fax") != nil || req.Find("sp") != nil {
		t.Error("empty optional elements must be omitted")
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Contact)
	}{
		{"no name", func(c *Contact) { c.PostalInfo.Name = "" }},
		{"no city", func(c *Contact) { c.PostalInfo.Address.City = "" }},
		{"bad country", func(c *Contact) { c.PostalInfo.Address.CountryCode = "USA" }},
		{"too many streets", func(c *Contact) { c.PostalInfo.Address.Street = []string{"a", "b", "c", "d"} }},
		{"no email", func(c *Contact) { c.Email = "" }},
		{"bad postal type", func(c *Contact) { c.PostalInfo.Type = "both" }},
		{"bad disclose", func(c *Contact) { c.Disclose = []string{"birthday"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, exec := newClient(t, registrytest.Respond(1000, "ok", ""))
			ct := validContact()
			tt.mutate(&ct)
			if _, err := c.Create(context.Background(), ct); !errors.Is(err, epp.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if len(exec.Requests()) != 0 {
				t.Error("invalid create was sent")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	c, exec := newClient(t, registrytest.Respond(2305, "Object association prohibits operation", ""))

	res, err := c.Delete(context.Background(), "sh8013")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if res.Code != epp.CodeAssociationProhibits {
		t.Errorf("code = %d", res.Code)
	}
	if got := exec.Last(t).TextOf("id"); got != "sh8013" {
		t.Errorf("deleted id = %q", got)
	}
}

func TestUpdateContainers(t *testing.T) {
	tests := []struct {
		name       string
		update     Update
		wantAdd    bool
		wantRem    bool
		wantChg    bool
		wantPostal bool
		wantAddr   bool
	}{
		{
			name:    "status only",
			update:  Update{ID: "sh8013", AddStatuses: []string{"clientDeleteProhibited"}},
			wantAdd: true,
		},
		{
			name:    "email only",
			update:  Update{ID: "sh8013", RemoveStatuses: []string{"clientUpdateProhibited"}, Email: "new@example.com"},
			wantRem: true,
			wantChg: true,
		},
		{
			name:       "name only",
			update:     Update{ID: "sh8013", PostalInfo: &epp.PostalInfo{Name: "Jane Doe"}},
			wantChg:    true,
			wantPostal: true,
		},
		{
			name: "address",
			update: Update{ID: "sh8013", PostalInfo: &epp.PostalInfo{
				Type:    "loc",
				Address: epp.Address{City: "Wellington", CountryCode: "NZ"},
			}},
			wantChg:    true,
			wantPostal: true,
			wantAddr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, exec := newClient(t, registrytest.Respond(1000, "ok", ""))
			if _, err := c.Update(context.Background(), tt.update); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			upd := exec.Last(t).Child("command").Child("update").Child("update")
			if upd == nil {
				t.Fatal("no contact:update element")
			}
			check := func(el string, want bool) {
				if got := upd.Child(el) != nil; got != want {
					t.Errorf("<%s> present = %v, want %v", el, got, want)
				}
			}
			check("add", tt.wantAdd)
			check("rem", tt.wantRem)
			check("chg", tt.wantChg)
			pi := upd.Child("chg").Child("postalInfo")
			if (pi != nil) != tt.wantPostal {
				t.Errorf("postalInfo present = %v", pi != nil)
			}
			if (pi.Child("addr") != nil) != tt.wantAddr {
				t.Errorf("addr present = %v", pi.Child("addr") != nil)
			}
			if upd.Find("pw") != nil {
				t.Error("update must not generate a password")
			}
		})
	}
}

func TestUpdateValidation(t *testing.T) {
	c, _ := newClient(t, registrytest.Respond(1000, "ok", ""))

	if _, err := c.Update(context.Background(), Update{ID: "sh8013"}); !errors.Is(err, epp.ErrInvalidParameter) {
		t.Errorf("empty update: %v", err)
	}
	partial := Update{ID: "sh8013", PostalInfo: &epp.PostalInfo{Address: epp.Address{Street: []string{"1 Main St"}}}}
	if _, err := c.Update(context.Background(), partial); !errors.Is(err, epp.ErrInvalidParameter) {
		t.Errorf("address without city: %v", err)
	}
}

func TestPostalInfoParams(t *testing.T) {
	p := postalInfoParams(epp.PostalInfo{Name: "A", Address: epp.Address{City: "B", CountryCode: "NZ"}})
	if p["PostalType"] != PostalInternational {
		t.Errorf("default type = %v", p["PostalType"])
	}
	if p["City"] != "B" || p["CountryCode"] != "NZ" || p["Name"] != "A" {
		t.Errorf("params = %v", p)
	}
}
