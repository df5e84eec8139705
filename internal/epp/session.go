// Package epp implements an EPP (RFC 5730) client session: the connection
// lifecycle, the synchronous command exchange and response decoding.
package epp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rsclarke/goepp/internal/channel"
	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/events"
	"github.com/rsclarke/goepp/internal/frame"
	"github.com/rsclarke/goepp/internal/logging"
	"github.com/rsclarke/goepp/internal/plugins"
	"github.com/rsclarke/goepp/internal/plugins/core/redact"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// State is the lifecycle position of a Session.
type State int

// Session states. StateClosed is terminal.
const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Executor sends a rendered command and returns the decoded result.
type Executor interface {
	Execute(ctx context.Context, xml string) (*Result, error)
}

// DialFunc opens the transport connection.
type DialFunc func(ctx context.Context, cfg channel.Config) (net.Conn, error)

// Session is one EPP connection. Commands are exchanged strictly one at a
// time; a Session must not be used from multiple goroutines concurrently.
type Session struct {
	cfg      channel.Config
	dial     DialFunc
	renderer *command.Renderer
	pipeline *plugins.Pipeline
	limiter  *rate.Limiter
	logger   *zap.Logger
	timeout  time.Duration
	maxFrame uint32

	conn     net.Conn
	state    State
	user     string
	greeting *Greeting
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithDialer replaces the TLS dialer, typically in tests.
func WithDialer(dial DialFunc) Option {
	return func(s *Session) { s.dial = dial }
}

// WithRenderer shares a command renderer with the session.
func WithRenderer(r *command.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithPipeline runs the plugin pipeline after every exchange.
func WithPipeline(p *plugins.Pipeline) Option {
	return func(s *Session) { s.pipeline = p }
}

// WithRateLimit limits commands to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Session) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds each read and write.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxFrameSize bounds the size of inbound frames.
func WithMaxFrameSize(n uint32) Option {
	return func(s *Session) { s.maxFrame = n }
}

// NewSession creates a disconnected session for cfg.
func NewSession(cfg channel.Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:      cfg,
		dial:     channel.Dial,
		logger:   zap.NewNop(),
		timeout:  cfg.Timeout,
		maxFrame: frame.DefaultMaxSize,
	}
	if s.timeout <= 0 {
		s.timeout = channel.DefaultTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.renderer == nil {
		r, err := command.NewRenderer()
		if err != nil {
			return nil, err
		}
		s.renderer = r
	}
	s.logger = s.logger.With(logging.Component("session"), logging.Host(cfg.Host), logging.Port(cfg.Port))
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// User returns the authenticated registrar ID, or "" before login.
func (s *Session) User() string { return s.user }

// Greeting returns the most recent greeting, or nil before Connect.
func (s *Session) Greeting() *Greeting { return s.greeting }

// Renderer returns the command renderer used by the session.
func (s *Session) Renderer() *command.Renderer { return s.renderer }

// Connect opens the connection and reads the server greeting.
func (s *Session) Connect(ctx context.Context) error {
	if s.state != StateDisconnected {
		return fmt.Errorf("%w: connect while %s", ErrInvalidState, s.state)
	}

	s.logger.Info("connecting")
	conn, err := s.dial(ctx, s.cfg)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}
	s.conn = conn

	raw, err := s.readFrame(ctx)
	if err != nil {
		s.closeConn()
		if errors.Is(err, io.EOF) {
			err = ErrServerClosed
		}
		return &ConnectionError{Op: "greeting", Err: err}
	}

	g, err := ParseGreeting(raw)
	if err != nil {
		s.logger.Warn("unrecognised greeting", zap.Error(err))
		g = &Greeting{Raw: string(raw)}
	}
	s.greeting = g
	s.setState(StateConnected)
	s.logger.Info("connected", zap.String("server_id", g.ServerID))
	return nil
}

// Execute sends xml and returns the decoded response. Any transport failure
// closes the session.
func (s *Session) Execute(ctx context.Context, xml string) (*Result, error) {
	if s.state != StateConnected && s.state != StateAuthenticated {
		return nil, fmt.Errorf("%w: execute while %s", ErrInvalidState, s.state)
	}
	return s.exchange(ctx, commandName(xml), xml)
}

// Hello sends a hello and returns the refreshed greeting. Registries accept
// it as a keep-alive.
func (s *Session) Hello(ctx context.Context) (*Greeting, error) {
	if s.state != StateConnected && s.state != StateAuthenticated {
		return nil, fmt.Errorf("%w: hello while %s", ErrInvalidState, s.state)
	}
	xml, err := s.renderer.Render(command.Hello, nil)
	if err != nil {
		return nil, err
	}

	ev := &events.CommandEvent{Command: "hello", User: s.user, Request: xml, StartedAt: time.Now()}
	raw, err := s.roundTrip(ctx, []byte(xml))
	ev.Duration = time.Since(ev.StartedAt)
	if err != nil {
		ev.Err = err
		s.emit(ctx, ev)
		return nil, err
	}
	ev.Response = string(raw)

	g, err := ParseGreeting(raw)
	ev.Err = err
	s.emit(ctx, ev)
	if err != nil {
		return nil, err
	}
	s.greeting = g
	return g, nil
}

type loginOptions struct {
	newPassword   string
	language      string
	version       string
	objectURIs    []string
	transactionID string
}

// LoginOption adjusts the login command.
type LoginOption func(*loginOptions)

// WithNewPassword changes the registrar password as part of login.
func WithNewPassword(pw string) LoginOption {
	return func(o *loginOptions) { o.newPassword = pw }
}

// WithLanguage sets the response language, "en" by default.
func WithLanguage(lang string) LoginOption {
	return func(o *loginOptions) {
		if lang != "" {
			o.language = lang
		}
	}
}

// WithObjectURIs replaces the announced object namespaces.
func WithObjectURIs(uris []string) LoginOption {
	return func(o *loginOptions) {
		if len(uris) > 0 {
			o.objectURIs = uris
		}
	}
}

// WithLoginTransactionID sets the clTRID of the login command.
func WithLoginTransactionID(id string) LoginOption {
	return func(o *loginOptions) { o.transactionID = id }
}

// Login authenticates the session. extensions lists the extension
// namespaces to announce; nil selects DefaultExtensionURIs. Only 1000 and
// 1001 authenticate; 1500 means the server is ending the session, which
// closes it.
func (s *Session) Login(ctx context.Context, user, password string, extensions []string, opts ...LoginOption) (*Result, error) {
	if s.state != StateConnected {
		return nil, fmt.Errorf("%w: login while %s", ErrInvalidState, s.state)
	}

	o := loginOptions{version: "1.0", language: "en", objectURIs: DefaultObjectURIs}
	for _, opt := range opts {
		opt(&o)
	}
	if o.newPassword != "" {
		if err := validatePassword(o.newPassword); err != nil {
			return nil, err
		}
	}
	if extensions == nil {
		extensions = DefaultExtensionURIs
	}

	xml, err := s.renderer.Render(command.Login, command.Params{
		"ClientID":          user,
		"ClientPassword":    password,
		"NewClientPassword": o.newPassword,
		"Version":           o.version,
		"Language":          o.language,
		"ObjectURIs":        o.objectURIs,
		"ExtensionURIs":     extensions,
	}, command.WithTransactionID(o.transactionID))
	if err != nil {
		return nil, err
	}

	res, err := s.exchange(ctx, "login", xml)
	if err != nil {
		return nil, err
	}

	switch {
	case res.Code == CodeSuccess || res.Code == CodeSuccessPending:
		s.setState(StateAuthenticated)
		s.user = user
		s.logger.Info("logged in", logging.User(user), logging.SvTRID(res.ServerTransactionID))
		return res, nil
	case res.Code == CodeParameterValueRange:
		s.logger.Warn("login rejected", logging.User(user), logging.Code(int(res.Code)))
		return nil, &AuthenticationError{Result: res}
	default:
		s.logger.Warn("login failed", logging.User(user), logging.Code(int(res.Code)))
		if res.Code == CodeEndingSession {
			s.fail()
		}
		return nil, &CommandError{Command: "login", Code: res.Code, Message: res.Message, Reason: res.Reason}
	}
}

// Logout ends the session. The connection is closed whatever the outcome
// and the session cannot be reused.
func (s *Session) Logout(ctx context.Context, opts ...command.Option) (*Result, error) {
	if s.state != StateConnected && s.state != StateAuthenticated {
		return nil, fmt.Errorf("%w: logout while %s", ErrInvalidState, s.state)
	}
	defer s.Close()

	xml, err := s.renderer.Render(command.Logout, nil, opts...)
	if err != nil {
		return nil, err
	}
	res, err := s.exchange(ctx, "logout", xml)
	if err != nil {
		return nil, err
	}
	s.logger.Info("logged out", logging.Code(int(res.Code)))
	return res, nil
}

// Close drops the connection without logging out. It is safe to call more
// than once.
func (s *Session) Close() error {
	err := s.closeConn()
	s.setState(StateClosed)
	s.user = ""
	return err
}

func (s *Session) exchange(ctx context.Context, name, xml string) (*Result, error) {
	ev := &events.CommandEvent{Command: name, User: s.user, Request: xml, StartedAt: time.Now()}

	raw, err := s.roundTrip(ctx, []byte(xml))
	ev.Duration = time.Since(ev.StartedAt)
	if err != nil {
		ev.Err = err
		s.emit(ctx, ev)
		s.logger.Error("command failed", logging.Command(name), zap.Error(err))
		return nil, err
	}
	ev.Response = string(raw)

	res, err := Decode(raw)
	if err != nil {
		ev.Err = err
		s.emit(ctx, ev)
		s.logger.Warn("undecodable response", logging.Command(name), zap.Error(err))
		return nil, err
	}

	ev.Code = int(res.Code)
	ev.Message = res.Message
	ev.Reason = res.Reason
	ev.ClTRID = res.ClientTransactionID
	ev.SvTRID = res.ServerTransactionID
	s.emit(ctx, ev)

	s.logger.Debug("command completed",
		logging.Command(name),
		logging.Code(int(res.Code)),
		logging.ClTRID(res.ClientTransactionID),
		logging.SvTRID(res.ServerTransactionID),
		zap.Duration("duration", ev.Duration))
	if ce := s.logger.Check(zap.DebugLevel, "exchange"); ce != nil {
		req, _ := redact.Secrets(xml)
		ce.Write(zap.String("request", req), logging.Bytes(len(raw)))
	}
	return res, nil
}

func (s *Session) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	stop := s.watch(ctx)
	defer stop()

	if err := s.conn.SetDeadline(s.deadline(ctx)); err != nil {
		s.fail()
		return nil, &TransportError{Op: "deadline", Err: err}
	}
	if err := frame.Write(s.conn, payload); err != nil {
		s.fail()
		return nil, &TransportError{Op: "write", Err: err}
	}

	raw, err := frame.Read(s.conn, s.maxFrame)
	if err != nil {
		s.fail()
		if errors.Is(err, io.EOF) {
			err = ErrServerClosed
		}
		return nil, &TransportError{Op: "read", Err: err}
	}
	return raw, nil
}

func (s *Session) readFrame(ctx context.Context) ([]byte, error) {
	stop := s.watch(ctx)
	defer stop()

	if err := s.conn.SetDeadline(s.deadline(ctx)); err != nil {
		return nil, err
	}
	return frame.Read(s.conn, s.maxFrame)
}

// watch aborts blocked I/O when ctx is cancelled.
func (s *Session) watch(ctx context.Context) func() bool {
	conn := s.conn
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
}

func (s *Session) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(s.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		d = ctxDeadline
	}
	return d
}

func (s *Session) setState(st State) {
	if s.state != st {
		s.logger.Debug("session state", logging.State(st.String()), zap.Stringer("from", s.state))
	}
	s.state = st
}

func (s *Session) fail() {
	_ = s.closeConn()
	s.setState(StateClosed)
}

func (s *Session) closeConn() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.logger.Debug("connection closed")
	return err
}

func (s *Session) emit(ctx context.Context, ev *events.CommandEvent) {
	if s.pipeline == nil {
		return
	}
	if err := s.pipeline.Process(ctx, ev); err != nil {
		s.logger.Warn("command journal failed", logging.Command(ev.Command), zap.Error(err))
	}
}

func validatePassword(pw string) error {
	if n := len([]rune(pw)); n < 6 || n > 16 {
		return fmt.Errorf("%w: password must be 6 to 16 characters", ErrInvalidParameter)
	}
	return nil
}

// commandName labels a request as "object:verb", "login", "poll" and so on.
func commandName(request string) string {
	doc, err := xmldoc.Parse([]byte(request))
	if err != nil {
		return "unknown"
	}
	if doc.Child("hello") != nil {
		return "hello"
	}
	cmd := doc.Child("command")
	if cmd == nil || len(cmd.Children) == 0 {
		return "unknown"
	}
	verb := cmd.Children[0]
	if len(verb.Children) > 0 {
		if obj := objectName(verb.Children[0].Space); obj != "" {
			return obj + ":" + verb.Name
		}
	}
	return verb.Name
}

func objectName(ns string) string {
	if !strings.HasPrefix(ns, "urn:ietf:params:xml:ns:") {
		return ""
	}
	name := strings.TrimPrefix(ns, "urn:ietf:params:xml:ns:")
	if i := strings.LastIndex(name, "-"); i > 0 {
		name = name[:i]
	}
	return name
}
