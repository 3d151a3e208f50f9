// Package storage implements the entry store: whole-file collections kept
// under a single data directory.
package storage

// Provider is the interface for store file operations. Names are plain
// file names relative to the store directory.
type Provider interface {
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically replaces the named file.
	Write(name string, content []byte) error
	// Root returns the absolute path of the store directory.
	Root() string
}
