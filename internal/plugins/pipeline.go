package plugins

import (
	"context"

	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/events"
)

// Pipeline orchestrates plugin hook execution in the correct order.
type Pipeline struct {
	store     Store
	plugins   []Plugin
	preStore  []PreStoreHook
	postStore []PostStoreHook
	logger    *zap.Logger
}

// NewPipeline creates a new Pipeline with the given logger.
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:    logger,
		plugins:   make([]Plugin, 0),
		preStore:  make([]PreStoreHook, 0),
		postStore: make([]PostStoreHook, 0),
	}
}

// SetStore sets the storage backend for the pipeline.
func (p *Pipeline) SetStore(store Store) {
	p.store = store
}

// Register initializes a plugin, detects which capability interfaces it
// implements and adds it to the appropriate hook lists.
func (p *Pipeline) Register(plugin Plugin) error {
	if err := plugin.Init(InitContext{Logger: p.logger, Store: p.store}); err != nil {
		return err
	}
	p.plugins = append(p.plugins, plugin)
	if hook, ok := plugin.(PreStoreHook); ok {
		p.preStore = append(p.preStore, hook)
	}
	if hook, ok := plugin.(PostStoreHook); ok {
		p.postStore = append(p.postStore, hook)
	}
	return nil
}

// ListPlugins returns metadata about all registered plugins.
func (p *Pipeline) ListPlugins() []PluginInfo {
	infos := make([]PluginInfo, 0, len(p.plugins))
	for _, plugin := range p.plugins {
		info := PluginInfo{
			ID:   plugin.ID(),
			Type: PluginTypeFeature,
		}
		if cp, ok := plugin.(CorePlugin); ok && cp.IsCore() {
			info.Type = PluginTypeCore
		}
		infos = append(infos, info)
	}
	return infos
}

// Process runs hooks in order: PreStore → Storage → PostStore. Hook errors
// are logged; a storage error is returned after the post-store hooks ran.
func (p *Pipeline) Process(ctx context.Context, e *events.CommandEvent) error {
	for _, hook := range p.preStore {
		if err := hook.OnPreStore(ctx, e); err != nil {
			p.logger.Warn("prestore hook error",
				zap.String("plugin", pluginID(hook)),
				zap.Error(err))
		}
	}

	var storeErr error
	if !e.Drop && p.store != nil {
		id, err := p.store.RecordCommand(ctx, e)
		if err != nil {
			storeErr = err
		} else {
			e.JournalID = id
		}
	}

	for _, hook := range p.postStore {
		if err := hook.OnPostStore(ctx, e); err != nil {
			p.logger.Warn("poststore hook error",
				zap.String("plugin", pluginID(hook)),
				zap.Error(err))
		}
	}

	return storeErr
}

func pluginID(hook any) string {
	if p, ok := hook.(Plugin); ok {
		return p.ID()
	}
	return "unknown"
}
