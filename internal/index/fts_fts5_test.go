//go:build sqlite_fts5

package index

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries_fts`).Scan(&count); err != nil {
		t.Fatalf("entries_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertEntry(entry("fts", "2024-02-02", "FTS Entry", "Lumina provides powerful full-text search capabilities.")); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "fts" || results[0].Date != "2024-02-02" {
		t.Errorf("result = %+v", results[0])
	}
	// FTS5 snippet should contain bold markers.
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_QuotesAreLiteral(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(entry("q", "2024-01-01", "Quote", "said hello"))
	if _, err := db.Search(`hello" OR "`, 10); err != nil {
		t.Fatalf("Search with quotes: %v", err)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(entry("gone", "2024-01-01", "Gone", "vanishing content"))
	_ = db.DeleteEntry("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.ID == "gone" {
			t.Error("deleted entry still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(entry("evo", "2024-01-01", "Old", "original text"))
	_ = db.UpsertEntry(entry("evo", "2024-01-01", "New", "replacement text"))

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}

func TestFTS5_PrefixMatch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(entry("p", "2024-01-01", "Tokenizer", "rewrote the tokenizer"))

	results, err := db.Search("tokeni", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("prefix search results = %d, want 1", len(results))
	}
}
