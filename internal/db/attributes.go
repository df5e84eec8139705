package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// SaveAttributes merges plugin data into a journal entry's attributes.
// Values are stored JSON-encoded; a nil value removes the key. Keys are
// written in sorted order so the statement sequence is deterministic.
func SaveAttributes(d *sql.DB, journalID int64, attrs map[string]any) error {
	if len(attrs) == 0 {
		return nil
	}

	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		val := attrs[key]
		if val == nil {
			_, err = tx.Exec("DELETE FROM journal_attributes WHERE journal_id = ? AND key = ?", journalID, key)
		} else {
			var encoded []byte
			if encoded, err = json.Marshal(val); err != nil {
				return fmt.Errorf("encode attribute %q: %w", key, err)
			}
			_, err = tx.Exec(`INSERT INTO journal_attributes (journal_id, key, value) VALUES (?, ?, ?)
				ON CONFLICT (journal_id, key) DO UPDATE SET value = excluded.value`,
				journalID, key, string(encoded))
		}
		if err != nil {
			return fmt.Errorf("journal %d attribute %q: %w", journalID, key, err)
		}
	}
	return tx.Commit()
}

// GetAttributes returns the decoded attributes of a journal entry. An entry
// without attributes yields an empty map.
func GetAttributes(d *sql.DB, journalID int64) (map[string]any, error) {
	rows, err := d.Query("SELECT key, value FROM journal_attributes WHERE journal_id = ?", journalID)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	attrs := make(map[string]any)
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("journal %d attribute %q: %w", journalID, key, err)
		}
		attrs[key] = v
	}
	return attrs, rows.Err()
}

// FindByAttribute returns the IDs of journal entries whose attribute key
// holds value, newest first.
func FindByAttribute(d *sql.DB, key string, value any) ([]int64, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode attribute %q: %w", key, err)
	}
	rows, err := d.Query(`SELECT journal_id FROM journal_attributes
		WHERE key = ? AND value = ? ORDER BY journal_id DESC`, key, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
