// Package client assembles a logged-in EPP session with its object
// clients, command journal and metrics.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/config"
	"github.com/rsclarke/goepp/internal/contact"
	"github.com/rsclarke/goepp/internal/db"
	"github.com/rsclarke/goepp/internal/delegation"
	"github.com/rsclarke/goepp/internal/domain"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/host"
	"github.com/rsclarke/goepp/internal/logging"
	"github.com/rsclarke/goepp/internal/plugins"
	"github.com/rsclarke/goepp/internal/plugins/core/metrics"
	"github.com/rsclarke/goepp/internal/plugins/core/redact"
	"github.com/rsclarke/goepp/internal/plugins/core/storage"
	"github.com/rsclarke/goepp/internal/poll"
)

// Client bundles the object clients over one executor. With a session the
// executor is the session; in dry-run mode it is a Recorder.
type Client struct {
	Session    *epp.Session
	Recorder   *Recorder
	Renderer   *command.Renderer
	Contacts   *contact.Client
	Domains    *domain.Client
	Hosts      *host.Client
	Poll       *poll.Client
	Delegation *delegation.Provider

	cfg      *config.Config
	logger   *zap.Logger
	journal  *sql.DB
	registry *prometheus.Registry
	pipeline *plugins.Pipeline
}

type options struct {
	logger      *zap.Logger
	dryRun      bool
	sessionOpts []epp.Option
	renderer    *command.Renderer
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger shared by the session and plugins.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDryRun records rendered commands instead of connecting.
func WithDryRun() Option {
	return func(o *options) { o.dryRun = true }
}

// WithRenderer replaces the default command renderer.
func WithRenderer(r *command.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithSessionOptions passes extra options to the session.
func WithSessionOptions(opts ...epp.Option) Option {
	return func(o *options) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

// New builds a client for cfg. Nothing is sent until Open.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	c := &Client{
		cfg:      cfg,
		logger:   o.logger.With(logging.Component("client")),
		registry: prometheus.NewRegistry(),
		Renderer: o.renderer,
	}
	if c.Renderer == nil {
		r, err := command.NewRenderer()
		if err != nil {
			return nil, err
		}
		c.Renderer = r
	}

	var exec epp.Executor
	if o.dryRun {
		c.Recorder = &Recorder{}
		exec = c.Recorder
	} else {
		if err := c.buildPipeline(o.logger); err != nil {
			return nil, err
		}
		sessionOpts := []epp.Option{
			epp.WithLogger(o.logger),
			epp.WithRenderer(c.Renderer),
			epp.WithPipeline(c.pipeline),
			epp.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		}
		s, err := epp.NewSession(cfg.Channel(), append(sessionOpts, o.sessionOpts...)...)
		if err != nil {
			_ = c.closeJournal()
			return nil, err
		}
		c.Session = s
		exec = s
	}

	c.Contacts = contact.New(exec, c.Renderer)
	c.Domains = domain.New(exec, c.Renderer)
	c.Hosts = host.New(exec, c.Renderer)
	c.Poll = poll.New(exec, c.Renderer)
	c.Delegation = &delegation.Provider{Domains: c.Domains, Logger: o.logger.Named("delegation")}
	return c, nil
}

func (c *Client) buildPipeline(logger *zap.Logger) error {
	c.pipeline = plugins.NewPipeline(logger.Named("plugins"))

	// redact must run before the store sees the event.
	core := []plugins.Plugin{redact.New()}
	if c.cfg.JournalPath != "" {
		database, err := db.Open(c.cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		c.journal = database
		st := storage.New(database)
		c.pipeline.SetStore(st)
		core = append(core, st)
	}
	m, err := metrics.New(c.registry)
	if err != nil {
		_ = c.closeJournal()
		return err
	}
	core = append(core, m)

	for _, p := range core {
		if err := c.pipeline.Register(p); err != nil {
			_ = c.closeJournal()
			return fmt.Errorf("register plugin %s: %w", p.ID(), err)
		}
	}
	for _, info := range c.pipeline.ListPlugins() {
		logger.Debug("plugin registered", zap.String("plugin", info.ID), zap.String("type", string(info.Type)))
	}
	return nil
}

// Executor returns the session, or the recorder in dry-run mode.
func (c *Client) Executor() epp.Executor {
	if c.Session != nil {
		return c.Session
	}
	return c.Recorder
}

// Registry returns the metrics registry the pipeline reports to.
func (c *Client) Registry() *prometheus.Registry { return c.registry }

// Journal returns the journal database, or nil when journaling is off.
func (c *Client) Journal() *sql.DB { return c.journal }

// Open connects and logs in. It is a no-op in dry-run mode.
func (c *Client) Open(ctx context.Context) error {
	if c.Session == nil {
		return nil
	}
	if err := c.Session.Connect(ctx); err != nil {
		return err
	}
	_, err := c.Session.Login(ctx, c.cfg.User, c.cfg.Password, c.cfg.Extensions,
		epp.WithLanguage(c.cfg.Language),
		epp.WithObjectURIs(c.cfg.ObjectURIs),
	)
	if err != nil {
		_ = c.Session.Close()
		return err
	}
	return nil
}

// Close logs out if logged in, then releases the journal and writes the
// metrics file when one is configured.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.Session != nil {
		if c.Session.State() == epp.StateAuthenticated {
			if _, err := c.Session.Logout(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.cfg.MetricsFile != "" && c.Session != nil {
		if err := prometheus.WriteToTextfile(c.cfg.MetricsFile, c.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := c.closeJournal(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Client) closeJournal() error {
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}

// Recorder is an executor that keeps rendered commands without sending
// them. Every command yields a result with code 0 and the request as Raw.
type Recorder struct {
	mu       sync.Mutex
	commands []string
}

// Execute records xml.
func (r *Recorder) Execute(_ context.Context, xml string) (*epp.Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, xml)
	r.mu.Unlock()
	return &epp.Result{Message: "not sent (dry run)", Raw: xml}, nil
}

// Commands returns the recorded commands in order.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}
