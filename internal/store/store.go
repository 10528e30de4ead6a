// Package store implements the SQLite-backed document registry: named
// lattice sources persisted alongside the diagnostics their last
// materialization produced. The registry is shared state, so unlike the
// single-writer document it serializes its own access.
package store

import (
	"errors"
	"time"
)

// Registry lifecycle and operation errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrNotFound        = errors.New("document not found")
	ErrInvalidName     = errors.New("document name must not be empty")
)

// Config holds the parameters for Store.Attach.
type Config struct {
	// DataDir is where the registry database lives. Empty means the
	// current directory. Created on attach when missing.
	DataDir string

	// MaxCategoryDepth is passed through to materialization on Save.
	// Zero selects the materializer default.
	MaxCategoryDepth int
}

// Diagnostic is the persisted projection of one materializer finding.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

// Record is one registry entry: the authored source, its identity, and the
// diagnostics from the save-time materialization.
type Record struct {
	DocID       string       `json:"doc_id"` // UUID v7, stable across updates
	Name        string       `json:"name"`
	Source      string       `json:"source"`
	Clean       bool         `json:"clean"` // no contamination sources at save time
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
