package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultkit/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// TagCount is the number of notes carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SuggestionRow is a stored link suggestion.
type SuggestionRow struct {
	RunID      string   `json:"run_id"`
	A          string   `json:"file1"`
	B          string   `json:"file2"`
	Reason     string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// RunRow is one recorded tool invocation.
type RunRow struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Processed  int       `json:"processed"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Errored    int       `json:"errored"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// UpsertNote inserts or replaces a note and its outgoing references within a transaction.
func (db *DB) UpsertNote(n NoteRow, refs []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(n.Tags)

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range refs {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing references.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM refs WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns all note paths that reference the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM refs WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TagCounts returns how many indexed notes carry each frontmatter tag, most
// used first.
func (db *DB) TagCounts() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tags FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// RecordRun stores a finished tool run and returns its generated id.
func (db *DB) RecordRun(tool string, s models.Summary, started, finished time.Time) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, tool, processed, updated, skipped, errored, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, tool, s.Processed, s.Updated, s.Skipped, s.Errored, started.UTC(), finished.UTC())
	if err != nil {
		return "", fmt.Errorf("index: record run: %w", err)
	}
	return id, nil
}

// Runs returns the most recent runs first. limit <= 0 means 50.
func (db *DB) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, tool, processed, updated, skipped, errored, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Tool, &r.Processed, &r.Updated, &r.Skipped, &r.Errored, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSuggestions stores suggestions under runID, replacing any previously
// saved for that run.
func (db *DB) SaveSuggestions(runID string, list []SuggestionRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM suggestions WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("index: clear suggestions: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO suggestions (run_id, a, b, reason, confidence, evidence) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare suggestion insert: %w", err)
	}
	defer stmt.Close()
	for _, s := range list {
		ev, _ := json.Marshal(s.Evidence)
		if _, err := stmt.Exec(runID, s.A, s.B, s.Reason, s.Confidence, string(ev)); err != nil {
			return fmt.Errorf("index: insert suggestion: %w", err)
		}
	}
	return tx.Commit()
}

// LoadSuggestions returns the suggestions of the latest run that saved any,
// highest confidence first. An empty reason matches all reasons; limit <= 0
// means no limit.
func (db *DB) LoadSuggestions(reason string, limit int) ([]SuggestionRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT s.run_id, s.a, s.b, s.reason, s.confidence, s.evidence
		FROM suggestions s
		WHERE s.run_id = (
			SELECT r.id FROM runs r
			WHERE EXISTS (SELECT 1 FROM suggestions x WHERE x.run_id = r.id)
			ORDER BY r.started_at DESC, r.rowid DESC
			LIMIT 1
		)
		AND (? = '' OR s.reason = ?)
		ORDER BY s.confidence DESC, s.rowid
		LIMIT ?
	`, reason, reason, limit)
	if err != nil {
		return nil, fmt.Errorf("index: load suggestions: %w", err)
	}
	defer rows.Close()

	var out []SuggestionRow
	for rows.Next() {
		var s SuggestionRow
		var ev string
		if err := rows.Scan(&s.RunID, &s.A, &s.B, &s.Reason, &s.Confidence, &ev); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(ev), &s.Evidence)
		out = append(out, s)
	}
	return out, rows.Err()
}
