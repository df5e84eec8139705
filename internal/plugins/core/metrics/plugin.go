// Package metrics implements the core plugin that exports command counters
// and latencies to Prometheus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/events"
	"github.com/rsclarke/goepp/internal/plugins"
)

// Plugin counts commands by result code and observes their duration.
type Plugin struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	logger   *zap.Logger
}

// New creates the metrics plugin and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Plugin, error) {
	p := &Plugin{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goepp",
				Name:      "commands_total",
				Help:      "EPP commands by result code.",
			},
			[]string{"command", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goepp",
				Name:      "command_duration_seconds",
				Help:      "EPP command round-trip duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goepp",
				Name:      "command_errors_total",
				Help:      "EPP commands that ended in a transport or protocol error.",
			},
			[]string{"command"},
		),
		logger: zap.NewNop(),
	}
	for _, c := range []prometheus.Collector{p.commands, p.duration, p.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return "metrics" }

// Init initializes the plugin with the given context.
func (p *Plugin) Init(ctx plugins.InitContext) error {
	if ctx.Logger != nil {
		p.logger = ctx.Logger.Named("metrics")
	}
	return nil
}

// OnPostStore records the exchange.
func (p *Plugin) OnPostStore(_ context.Context, e *events.CommandEvent) error {
	p.duration.WithLabelValues(e.Command).Observe(e.Duration.Seconds())
	if e.Failed() {
		p.errors.WithLabelValues(e.Command).Inc()
		return nil
	}
	p.commands.WithLabelValues(e.Command, strconv.Itoa(e.Code)).Inc()
	return nil
}
