// Package registrytest runs a scripted EPP registry for tests.
package registrytest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/frame"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Greeting is the default greeting sent on connect.
const Greeting = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <greeting>
    <svID>Test Registry EPP</svID>
    <svDate>2024-03-01T10:00:00.0Z</svDate>
    <svcMenu>
      <version>1.0</version>
      <lang>en</lang>
      <objURI>urn:ietf:params:xml:ns:domain-1.0</objURI>
      <objURI>urn:ietf:params:xml:ns:contact-1.0</objURI>
      <objURI>urn:ietf:params:xml:ns:host-1.0</objURI>
      <svcExtension>
        <extURI>urn:ietf:params:xml:ns:secDNS-1.1</extURI>
      </svcExtension>
    </svcMenu>
  </greeting>
</epp>`

// Handler produces the response to one request. Returning "" hangs up
// without replying.
type Handler func(request string) string

// Config describes a registry.
type Config struct {
	Greeting  string
	Handler   Handler
	TLSConfig *tls.Config
	Logger    *zap.Logger
}

// Server is a registry listening on a loopback port.
type Server struct {
	cfg    Config
	ln     net.Listener
	logger *zap.Logger

	mu       sync.Mutex
	requests []string
	wg       sync.WaitGroup
}

// NewServer creates a registry. Call Start to begin accepting.
func NewServer(cfg Config) *Server {
	if cfg.Greeting == "" {
		cfg.Greeting = Greeting
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger}
}

// Start listens on 127.0.0.1 with an ephemeral port.
func (s *Server) Start() error {
	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", "127.0.0.1:0", s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	}
	if err != nil {
		return fmt.Errorf("registry failed to start: %w", err)
	}
	s.ln = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.logger.Warn("accept error", zap.Error(err))
				}
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.Serve(conn)
			}()
		}
	}()
	return nil
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Requests returns the requests received so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Shutdown stops accepting and waits for open connections to finish.
func (s *Server) Shutdown(ctx context.Context) {
	if s.ln != nil {
		_ = s.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("shutdown timed out")
	}
}

// Serve runs the registry side of one connection: greeting first, then one
// response per request. The connection is closed after logout.
func (s *Server) Serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := frame.Write(conn, []byte(s.cfg.Greeting)); err != nil {
		s.logger.Debug("write greeting", zap.Error(err))
		return
	}

	for {
		req, err := frame.Read(conn, frame.DefaultMaxSize)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, string(req))
		s.mu.Unlock()

		var resp string
		if s.cfg.Handler != nil {
			resp = s.cfg.Handler(string(req))
		}
		if resp == "" {
			return
		}
		if err := frame.Write(conn, []byte(resp)); err != nil {
			return
		}
		if strings.Contains(string(req), "<logout") {
			return
		}
	}
}

// ClientTRID extracts the clTRID of a request.
func ClientTRID(request string) string {
	doc, err := xmldoc.Parse([]byte(request))
	if err != nil {
		return ""
	}
	return doc.TextOf("clTRID")
}

// Response builds a response document echoing the request's clTRID. body
// is inserted after the result element (resData, msgQ, extension).
func Response(request string, code int, msg string, body string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>`)
	b.WriteString(`<epp xmlns="urn:ietf:params:xml:ns:epp-1.0"><response>`)
	fmt.Fprintf(&b, `<result code="%d"><msg>%s</msg></result>`, code, msg)
	b.WriteString(body)
	b.WriteString(`<trID>`)
	if id := ClientTRID(request); id != "" {
		fmt.Fprintf(&b, `<clTRID>%s</clTRID>`, id)
	}
	b.WriteString(`<svTRID>TEST-0000000001</svTRID></trID></response></epp>`)
	return b.String()
}

// Respond answers every request with the same code, message and body.
func Respond(code int, msg string, body string) Handler {
	return func(request string) string {
		return Response(request, code, msg, body)
	}
}

// Hangup closes the connection instead of answering.
func Hangup() Handler {
	return func(string) string { return "" }
}

// Sequence answers the nth request with the nth handler. Requests beyond
// the script receive code 2400.
func Sequence(handlers ...Handler) Handler {
	var (
		mu sync.Mutex
		i  int
	)
	return func(request string) string {
		mu.Lock()
		n := i
		i++
		mu.Unlock()
		if n < len(handlers) {
			return handlers[n](request)
		}
		return Response(request, 2400, "Command failed", "")
	}
}
