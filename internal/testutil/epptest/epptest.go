// Package epptest provides an in-memory executor for object mapping tests.
package epptest

import (
	"context"
	"sync"
	"testing"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/registrytest"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Executor answers rendered commands with a registrytest handler without a
// connection.
type Executor struct {
	Handler registrytest.Handler

	mu       sync.Mutex
	requests []string
}

// Execute records xml and decodes the handler's response.
func (e *Executor) Execute(_ context.Context, xml string) (*epp.Result, error) {
	e.mu.Lock()
	e.requests = append(e.requests, xml)
	e.mu.Unlock()

	resp := e.Handler(xml)
	if resp == "" {
		return nil, &epp.TransportError{Op: "read", Err: epp.ErrServerClosed}
	}
	return epp.Decode([]byte(resp))
}

// Requests returns the commands executed so far.
func (e *Executor) Requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...)
}

// Last parses the most recent command.
func (e *Executor) Last(t testing.TB) *xmldoc.Node {
	t.Helper()
	reqs := e.Requests()
	if len(reqs) == 0 {
		t.Fatal("no command was executed")
	}
	doc, err := xmldoc.Parse([]byte(reqs[len(reqs)-1]))
	if err != nil {
		t.Fatalf("executed command is not well-formed: %v", err)
	}
	return doc
}

// Renderer returns a renderer with a fixed transaction ID.
func Renderer(t testing.TB) *command.Renderer {
	t.Helper()
	r, err := command.NewRenderer(command.WithTransactionIDFunc(func() string { return "ABC-12345" }))
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}
