// Package vault loads every note of a vault into memory for the batch
// analyses.
package vault

import (
	"log/slog"

	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/parser"
	"github.com/starford/vaultkit/internal/storage"
)

// Load reads and parses every note under dir. A note that cannot be read is
// logged and counted in errored; only a failure to enumerate dir is returned.
func Load(store storage.Provider, dir string, logger *slog.Logger) (docs []*models.Document, errored int, err error) {
	metas, err := store.List(dir)
	if err != nil {
		return nil, 0, err
	}
	docs = make([]*models.Document, 0, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("vault: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			errored++
			continue
		}
		docs = append(docs, parser.Parse(m.Path, data))
	}
	logger.Debug("vault: loaded", slog.Int("notes", len(docs)), slog.Int("errored", errored))
	return docs, errored, nil
}
