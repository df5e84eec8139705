// Package plugins defines the plugin interfaces and capability hooks run
// after every EPP command exchange.
package plugins

import (
	"context"

	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/events"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	ID() string
	Init(ctx InitContext) error
}

// InitContext provides access to shared resources during plugin initialization.
type InitContext struct {
	Logger *zap.Logger
	Store  Store
}

// Store persists command events.
type Store interface {
	RecordCommand(ctx context.Context, e *events.CommandEvent) (int64, error)
}

// PreStoreHook is called after the exchange, before persistence.
type PreStoreHook interface {
	OnPreStore(ctx context.Context, e *events.CommandEvent) error
}

// PostStoreHook is called after the event is persisted.
type PostStoreHook interface {
	OnPostStore(ctx context.Context, e *events.CommandEvent) error
}

// PluginType indicates whether a plugin is core infrastructure or a feature plugin.
type PluginType string

// Plugin type constants.
const (
	PluginTypeCore    PluginType = "core"
	PluginTypeFeature PluginType = "feature"
)

// CorePlugin is an optional interface that core plugins can implement.
type CorePlugin interface {
	IsCore() bool
}

// PluginInfo contains metadata about a registered plugin.
type PluginInfo struct {
	ID   string     `json:"id"`
	Type PluginType `json:"type"`
}
