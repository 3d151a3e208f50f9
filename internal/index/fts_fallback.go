//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

// snippetRadius is how many bytes of context are kept on each side of the
// first match.
const snippetRadius = 80

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE on the entries table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a case-insensitive substring search over title, body,
// category and tags. Results are ordered newest date first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := likePattern(query)
	rows, err := db.conn.Query(`
		SELECT id, date, title, body
		FROM entries
		WHERE title LIKE ?1 ESCAPE '\' OR body LIKE ?1 ESCAPE '\'
		   OR category LIKE ?1 ESCAPE '\' OR tags LIKE ?1 ESCAPE '\'
		ORDER BY date DESC, id
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var body string
		if err := rows.Scan(&r.ID, &r.Date, &r.Title, &body); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		r.Snippet = snippet(body, query)
		out = append(out, r)
	}
	return out, rows.Err()
}

// likePattern turns q into a LIKE substring pattern with its wildcards escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// snippet returns the part of body around the first case-insensitive match
// of q, or its head when q does not occur in body.
func snippet(body, q string) string {
	at := strings.Index(strings.ToLower(body), strings.ToLower(q))
	if at < 0 || len(q) == 0 {
		at = 0
	}
	start, end := at-snippetRadius, at+len(q)+snippetRadius
	prefix, suffix := "...", "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	if end >= len(body) {
		end, suffix = len(body), ""
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}
	return prefix + body[start:end] + suffix
}
