package index

import (
	"time"

	"github.com/starford/vaultkit/internal/models"
)

// Ledger defines the ledger operations used by the HTTP and MCP surfaces.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Ledger interface {
	UpsertNote(n NoteRow, refs []string) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Backlinks(target string) ([]string, error)
	TagCounts() ([]TagCount, error)
	RecordRun(tool string, s models.Summary, started, finished time.Time) (string, error)
	Runs(limit int) ([]RunRow, error)
	SaveSuggestions(runID string, list []SuggestionRow) error
	LoadSuggestions(reason string, limit int) ([]SuggestionRow, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
