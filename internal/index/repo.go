package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/lumina/internal/checksum"
	"github.com/starford/lumina/internal/models"
)

const revisionKey = "logs_revision"

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Date    string
	Title   string
	Snippet string
}

// UpsertEntry inserts or replaces an entry and its FTS row within a transaction.
func (db *DB) UpsertEntry(e models.Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertEntry(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertEntry(tx *sql.Tx, e models.Entry) error {
	tagsJSON, _ := json.Marshal(e.Tags)
	body := entryBody(e)

	_, err := tx.Exec(`
		INSERT INTO entries (id, date, title, category, tags, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date       = excluded.date,
			title      = excluded.title,
			category   = excluded.category,
			tags       = excluded.tags,
			body       = excluded.body,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, e.ID, e.Date, e.Title, e.Category, string(tagsJSON), body, entryChecksum(e), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	return ftsUpsert(tx, e.ID, e.Title, body, e.Category, e.Tags)
}

// DeleteEntry removes an entry and its FTS row.
func (db *DB) DeleteEntry(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deleteEntry(tx, id)
	return tx.Commit()
}

func deleteEntry(tx *sql.Tx, id string) {
	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM entries WHERE id = ?`, id)
}

// GetChecksum returns the stored checksum for an entry, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM entries WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed entry keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Revision returns the log collection revision the index was last
// reconciled against, or "" if it never was.
func (db *DB) Revision() (string, error) {
	var rev string
	err := db.conn.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, revisionKey).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: revision: %w", err)
	}
	return rev, nil
}

// Reconcile brings the index in line with entries in a single transaction:
// changed entries are upserted, missing ones deleted, and rev recorded.
// It returns the number of rows touched.
func (db *DB) Reconcile(entries []models.Entry, rev string) (int, error) {
	indexed, err := db.AllChecksums()
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	changed := 0
	live := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		live[e.ID] = struct{}{}
		if indexed[e.ID] == entryChecksum(e) {
			continue
		}
		if err := upsertEntry(tx, e); err != nil {
			return 0, err
		}
		changed++
	}
	for id := range indexed {
		if _, ok := live[id]; !ok {
			deleteEntry(tx, id)
			changed++
		}
	}

	_, err = tx.Exec(`
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, revisionKey, rev)
	if err != nil {
		return 0, fmt.Errorf("index: store revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: commit: %w", err)
	}
	return changed, nil
}

// entryBody is the searchable text of an entry: its content followed by
// the task texts.
func entryBody(e models.Entry) string {
	var b strings.Builder
	b.WriteString(e.Content)
	for _, t := range e.Tasks {
		b.WriteString("\n")
		b.WriteString(t.Text)
	}
	return b.String()
}

func entryChecksum(e models.Entry) string {
	return checksum.JSON(e)
}
