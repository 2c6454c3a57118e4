package index

import (
	"log/slog"
	"time"

	"github.com/starford/vaultkit/internal/checksum"
	"github.com/starford/vaultkit/internal/parser"
	"github.com/starford/vaultkit/internal/storage"
)

// Sync walks the vault and brings the ledger up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the ledger
//
// It returns the number of notes (re)indexed and removed.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (indexed, removed int, err error) {
	metas, err := store.List("")
	if err != nil {
		return 0, 0, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return 0, 0, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return indexed, removed, nil
}

// indexFile parses data and upserts it into the ledger.
func indexFile(db *DB, path string, data []byte) error {
	doc := parser.Parse(path, data)
	row := NoteRow{
		Path:      path,
		Title:     doc.Title,
		Checksum:  checksum.Sum(data),
		Tags:      doc.Tags,
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertNote(row, doc.References)
}
