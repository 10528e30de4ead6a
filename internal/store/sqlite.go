package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/lattice/pkg/materialize"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite registry backend. It is not attached until Attach is
// called with a Config.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   Config
	db       *sql.DB
}

// New creates an unattached registry.
func New() *Store {
	return &Store{}
}

// Attach opens (or creates) the registry database under Config.DataDir and
// applies the schema. Returns ErrAlreadyAttached when called twice.
func (s *Store) Attach(config Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "lattice.db"))
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	s.db = db
	s.config = config
	s.attached = true
	return nil
}

// Detach closes the database. Idempotent; operations after Detach return
// ErrDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.attached = false
	return err
}

// Save materializes source and upserts it under name. The document keeps
// its UUID across updates; the diagnostic list is replaced wholesale.
func (s *Store) Save(name, source string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return Record{}, ErrDetached
	}
	if name == "" {
		return Record{}, ErrInvalidName
	}

	res := materialize.Source(source, materialize.Options{MaxCategoryDepth: s.config.MaxCategoryDepth})
	now := time.Now().UTC()

	rec := Record{
		Name:      name,
		Source:    source,
		Clean:     res.Doc.Clean(),
		UpdatedAt: now,
	}
	for _, d := range res.Diagnostics {
		rec.Diagnostics = append(rec.Diagnostics, Diagnostic{
			Kind: d.Kind, Line: d.Line, Message: d.Message, Warning: d.Warning,
		})
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRow("SELECT doc_id, created_at FROM documents WHERE name = ?", name).
		Scan(&rec.DocID, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		id, err := uuid.NewV7()
		if err != nil {
			return Record{}, fmt.Errorf("mint doc id: %w", err)
		}
		rec.DocID = id.String()
		rec.CreatedAt = now
		_, err = tx.Exec(
			"INSERT INTO documents (doc_id, name, source, clean, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			rec.DocID, rec.Name, rec.Source, rec.Clean, now, now,
		)
		if err != nil {
			return Record{}, fmt.Errorf("insert document %q: %w", name, err)
		}
	case err != nil:
		return Record{}, fmt.Errorf("look up document %q: %w", name, err)
	default:
		rec.CreatedAt = createdAt
		_, err = tx.Exec(
			"UPDATE documents SET source = ?, clean = ?, updated_at = ? WHERE doc_id = ?",
			rec.Source, rec.Clean, now, rec.DocID,
		)
		if err != nil {
			return Record{}, fmt.Errorf("update document %q: %w", name, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM diagnostics WHERE doc_id = ?", rec.DocID); err != nil {
		return Record{}, fmt.Errorf("clear diagnostics: %w", err)
	}
	for i, d := range rec.Diagnostics {
		_, err := tx.Exec(
			"INSERT INTO diagnostics (doc_id, ordinal, kind, line, message, warning) VALUES (?, ?, ?, ?, ?, ?)",
			rec.DocID, i, d.Kind, d.Line, d.Message, d.Warning,
		)
		if err != nil {
			return Record{}, fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit save: %w", err)
	}
	return rec, nil
}

// Get returns the record stored under name, diagnostics included.
func (s *Store) Get(name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return Record{}, ErrDetached
	}

	var rec Record
	err := s.db.QueryRow(
		"SELECT doc_id, name, source, clean, created_at, updated_at FROM documents WHERE name = ?", name,
	).Scan(&rec.DocID, &rec.Name, &rec.Source, &rec.Clean, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get document %q: %w", name, err)
	}

	rows, err := s.db.Query(
		"SELECT kind, line, message, warning FROM diagnostics WHERE doc_id = ? ORDER BY ordinal", rec.DocID,
	)
	if err != nil {
		return Record{}, fmt.Errorf("get diagnostics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Kind, &d.Line, &d.Message, &d.Warning); err != nil {
			return Record{}, fmt.Errorf("scan diagnostic: %w", err)
		}
		rec.Diagnostics = append(rec.Diagnostics, d)
	}
	return rec, rows.Err()
}

// List returns every record ordered by name, without diagnostics.
func (s *Store) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, ErrDetached
	}

	rows, err := s.db.Query(
		"SELECT doc_id, name, source, clean, created_at, updated_at FROM documents ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.DocID, &rec.Name, &rec.Source, &rec.Clean, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record and its diagnostics.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return ErrDetached
	}

	var docID string
	err := s.db.QueryRow("SELECT doc_id FROM documents WHERE name = ?", name).Scan(&docID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up document %q: %w", name, err)
	}
	if _, err := s.db.Exec("DELETE FROM diagnostics WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("delete diagnostics: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM documents WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("delete document %q: %w", name, err)
	}
	return nil
}
