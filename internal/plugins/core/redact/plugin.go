// Package redact implements the core plugin that masks credentials in
// journaled command XML.
package redact

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/events"
	"github.com/rsclarke/goepp/internal/plugins"
)

// Mask replaces every secret value.
const Mask = "********"

// secretElement matches the text of pw and newPW elements in any namespace.
var secretElement = regexp.MustCompile(`(<(?:[A-Za-z_][\w.-]*:)?(?:pw|newPW)(?:\s[^>]*)?>)([^<]+)(</)`)

// Secrets returns xml with password values masked and the number of values
// replaced.
func Secrets(xml string) (string, int) {
	n := 0
	out := secretElement.ReplaceAllStringFunc(xml, func(m string) string {
		n++
		parts := secretElement.FindStringSubmatch(m)
		return parts[1] + Mask + parts[3]
	})
	return out, n
}

// Plugin masks passwords in the request and response before they are
// stored.
type Plugin struct {
	logger *zap.Logger
}

// New creates a new redact Plugin.
func New() *Plugin {
	return &Plugin{logger: zap.NewNop()}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return "redact" }

// IsCore marks redaction as core infrastructure.
func (p *Plugin) IsCore() bool { return true }

// Init initializes the plugin with the given context.
func (p *Plugin) Init(ctx plugins.InitContext) error {
	if ctx.Logger != nil {
		p.logger = ctx.Logger.Named("redact")
	}
	return nil
}

// OnPreStore masks secrets and records how many were hidden.
func (p *Plugin) OnPreStore(_ context.Context, e *events.CommandEvent) error {
	var req, res int
	e.Request, req = Secrets(e.Request)
	e.Response, res = Secrets(e.Response)
	if total := req + res; total > 0 {
		if e.Attributes == nil {
			e.Attributes = make(map[string]any)
		}
		e.Attributes["redacted"] = total
		p.logger.Debug("masked secrets", zap.String("command", e.Command), zap.Int("count", total))
	}
	return nil
}
