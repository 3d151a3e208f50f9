package index

import (
	"log/slog"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/storage"
)

// Sync loads the log collection and brings the index up to date:
//   - an unchanged collection revision is a no-op
//   - new/changed entries are upserted
//   - entries no longer stored are deleted from the index
//
// It returns the number of index rows touched.
func Sync(db *DB, logs *storage.Collection[[]models.Entry], logger *slog.Logger) (int, error) {
	entries, rev, err := logs.Load()
	if err != nil {
		return 0, err
	}

	indexed, err := db.Revision()
	if err != nil {
		return 0, err
	}
	if indexed == rev {
		logger.Debug("sync: index up to date", slog.String("revision", rev))
		return 0, nil
	}

	n, err := db.Reconcile(entries, rev)
	if err != nil {
		return 0, err
	}
	logger.Debug("sync: reconciled",
		slog.Int("entries", len(entries)),
		slog.Int("changed", n),
		slog.String("revision", rev))
	return n, nil
}
