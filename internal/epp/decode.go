package epp

import (
	"strconv"
	"strings"
	"time"

	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Decode turns a response document into a Result. Element lookups use local
// names only, so any namespace prefix the registry chooses is accepted.
func Decode(raw []byte) (*Result, error) {
	root, err := xmldoc.Parse(raw)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}

	resp := root
	if root.Name != "response" {
		resp = root.Find("response")
	}
	if resp == nil {
		return nil, &ProtocolError{Element: "response", Err: ErrMissingResponse}
	}

	result := resp.Find("result")
	if result == nil {
		return nil, &ProtocolError{Element: "result", Err: ErrMissingResult}
	}
	codeAttr, ok := result.Attr("code")
	if !ok {
		return nil, &ProtocolError{Element: "result", Err: ErrInvalidCode}
	}
	code, err := strconv.Atoi(strings.TrimSpace(codeAttr))
	if err != nil {
		return nil, InvalidValue("result", err)
	}

	r := &Result{
		Code:     Code(code),
		Message:  result.ChildText("msg"),
		Raw:      string(raw),
		response: resp,
	}
	if !r.Code.IsSuccess() {
		r.Reason = result.TextOf("reason")
	}

	trID := resp.Child("trID")
	r.ClientTransactionID = trID.TextOf("clTRID")
	r.ServerTransactionID = trID.TextOf("svTRID")
	r.RepositoryObjectID = resp.Find("resData").TextOf("roid")

	return r, nil
}

// ParseTime parses an EPP dateTime. An empty string yields nil.
func ParseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TimeOf parses the text of the first descendant of n named element.
func TimeOf(n *xmldoc.Node, element string) (*time.Time, error) {
	t, err := ParseTime(n.TextOf(element))
	if err != nil {
		return nil, InvalidValue(element, err)
	}
	return t, nil
}

// DecodeStatuses reads every status element below n.
func DecodeStatuses(n *xmldoc.Node) []Status {
	nodes := n.ChildrenNamed("status")
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Status, 0, len(nodes))
	for _, s := range nodes {
		out = append(out, Status{
			Value:       s.AttrOr("s"),
			Lang:        s.AttrOr("lang"),
			Description: s.Text,
		})
	}
	return out
}

// DecodeCheck reads the cd entries of a check response. element names the
// child carrying the checked value: "name" for domains and hosts, "id" for
// contacts.
func DecodeCheck(resp *xmldoc.Node, element string) (CheckResults, error) {
	chk := resp.Find("resData").Find("chkData")
	if chk == nil {
		return nil, missing("chkData")
	}

	results := make(CheckResults)
	for _, cd := range chk.ChildrenNamed("cd") {
		n := cd.Child(element)
		if n == nil {
			return nil, missing(element)
		}
		a := Availability{Available: parseBool(n.AttrOr("avail"))}
		if !a.Available {
			a.Reason = cd.ChildText("reason")
		}
		results[n.Text] = a
	}
	return results, nil
}

func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true")
}
