// Package testutil provides shared test helpers: temporary stores, a search
// index and a scripted AI service.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/starford/lumina/internal/ai"
	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "lumina-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with its collections.
func TestStore(t *testing.T) (string, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, storage.NewStore(fs)
}

// FakeCompleter is a scripted ai.Completer. Operations without a scripted
// reply fail with apperr.ErrServiceUnavailable.
type FakeCompleter struct {
	mu       sync.Mutex
	replies  map[string]fakeReply
	requests []ai.Request
}

type fakeReply struct {
	text string
	err  error
}

// NewFakeCompleter returns a FakeCompleter with no scripted replies.
func NewFakeCompleter() *FakeCompleter {
	return &FakeCompleter{replies: make(map[string]fakeReply)}
}

// On scripts the reply for an operation.
func (f *FakeCompleter) On(op, text string, err error) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[op] = fakeReply{text: text, err: err}
	return f
}

// Complete records req and returns the scripted reply.
func (f *FakeCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	r, ok := f.replies[req.Operation]
	if !ok {
		return "", fmt.Errorf("%w: no scripted reply for %q", apperr.ErrServiceUnavailable, req.Operation)
	}
	return r.text, r.err
}

// Calls returns how many requests were made for op.
func (f *FakeCompleter) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Operation == op {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request for op.
func (f *FakeCompleter) LastRequest(op string) (ai.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Operation == op {
			return f.requests[i], true
		}
	}
	return ai.Request{}, false
}
