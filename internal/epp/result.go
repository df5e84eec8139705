package epp

import (
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Result is the decoded outcome of one command. A non-success Code is a
// business outcome, not an error.
type Result struct {
	Code                Code    `json:"code"`
	Message             string  `json:"message"`
	Reason              string  `json:"reason,omitempty"`
	ClientTransactionID string  `json:"cl_trid,omitempty"`
	ServerTransactionID string  `json:"sv_trid,omitempty"`
	RepositoryObjectID  string  `json:"roid,omitempty"`
	Payload             Payload `json:"payload,omitempty"`
	Raw                 string  `json:"-"`

	response *xmldoc.Node
}

// Succeeded reports whether Code is a success code.
func (r *Result) Succeeded() bool {
	return r.Code.IsSuccess()
}

// Document returns the parsed <response> element, parsing Raw on first
// use for results that were not produced by Decode.
func (r *Result) Document() (*xmldoc.Node, error) {
	if r.response != nil {
		return r.response, nil
	}
	root, err := xmldoc.Parse([]byte(r.Raw))
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
	r.response = resp
	return resp, nil
}
