package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rsclarke/goepp/internal/models"
)

const journalColumns = `id, occurred_at, command, username, cl_trid, sv_trid, code, message,
	reason, duration_ms, request, response, error`

// DefaultListLimit caps ListJournalEntries when the filter sets no limit.
const DefaultListLimit = 50

func CreateJournalEntry(d *sql.DB, e models.JournalEntry) (int64, error) {
	result, err := d.Exec(`
		INSERT INTO journal (occurred_at, command, username, cl_trid, sv_trid, code, message,
			reason, duration_ms, request, response, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OccurredAt, e.Command, e.User, e.ClTRID, e.SvTRID, e.Code, e.Message,
		e.Reason, e.DurationMS, e.Request, e.Response, e.Error,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func GetJournalEntry(d *sql.DB, id int64) (*models.JournalEntry, error) {
	row := d.QueryRow("SELECT "+journalColumns+" FROM journal WHERE id = ?", id)
	e, err := scanJournalEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetJournalEntryByClTRID returns the most recent entry sent with the given
// client transaction identifier.
func GetJournalEntryByClTRID(d *sql.DB, clTRID string) (*models.JournalEntry, error) {
	row := d.QueryRow(
		"SELECT "+journalColumns+" FROM journal WHERE cl_trid = ? ORDER BY id DESC LIMIT 1",
		clTRID,
	)
	e, err := scanJournalEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListJournalEntries returns entries newest first.
func ListJournalEntries(d *sql.DB, f models.JournalFilter) ([]models.JournalEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Command != "" {
		where = append(where, "command = ?")
		args = append(args, f.Command)
	}
	if f.ClTRID != "" {
		where = append(where, "cl_trid = ?")
		args = append(args, f.ClTRID)
	}
	if f.Since > 0 {
		where = append(where, "occurred_at >= ?")
		args = append(args, f.Since)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT " + journalColumns + " FROM journal"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// PruneJournal deletes entries older than before (unix milliseconds) and
// returns how many were removed.
func PruneJournal(d *sql.DB, before int64) (int64, error) {
	result, err := d.Exec("DELETE FROM journal WHERE occurred_at < ?", before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJournalEntry(s scanner) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := s.Scan(&e.ID, &e.OccurredAt, &e.Command, &e.User, &e.ClTRID, &e.SvTRID, &e.Code,
		&e.Message, &e.Reason, &e.DurationMS, &e.Request, &e.Response, &e.Error)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
