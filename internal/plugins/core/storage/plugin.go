// Package storage implements the storage core plugin that journals command
// exchanges to SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/rsclarke/goepp/internal/db"
	"github.com/rsclarke/goepp/internal/events"
	"github.com/rsclarke/goepp/internal/models"
	"github.com/rsclarke/goepp/internal/plugins"
)

// Plugin persists command events and their attributes.
type Plugin struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a new storage Plugin with the given database connection.
func New(database *sql.DB) *Plugin {
	return &Plugin{db: database, logger: zap.NewNop()}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return "storage" }

// IsCore marks storage as core infrastructure.
func (p *Plugin) IsCore() bool { return true }

// Init initializes the plugin with the given context.
func (p *Plugin) Init(ctx plugins.InitContext) error {
	if ctx.Logger != nil {
		p.logger = ctx.Logger.Named("storage")
	}
	return nil
}

// RecordCommand writes the event to the journal and returns the entry ID.
func (p *Plugin) RecordCommand(_ context.Context, e *events.CommandEvent) (int64, error) {
	entry := models.JournalEntry{
		OccurredAt: e.StartedAt.UnixMilli(),
		Command:    e.Command,
		User:       e.User,
		ClTRID:     e.ClTRID,
		SvTRID:     e.SvTRID,
		Code:       e.Code,
		Message:    e.Message,
		Reason:     e.Reason,
		DurationMS: e.Duration.Milliseconds(),
		Request:    e.Request,
		Response:   e.Response,
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}

	id, err := db.CreateJournalEntry(p.db, entry)
	if err != nil {
		return 0, fmt.Errorf("create journal entry: %w", err)
	}
	p.logger.Debug("journaled command", zap.Int64("id", id), zap.String("command", e.Command))
	return id, nil
}

// OnPostStore saves attributes added by earlier hooks against the stored
// entry.
func (p *Plugin) OnPostStore(_ context.Context, e *events.CommandEvent) error {
	if e.JournalID == 0 || len(e.Attributes) == 0 {
		return nil
	}
	return db.SaveAttributes(p.db, e.JournalID, e.Attributes)
}
