package memory

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"stepqueen/internal/core"
	"stepqueen/internal/sheets"
)

var _ sheets.RecordStore = (*Store)(nil)

// Store keeps the table in process memory. Contents are lost on restart.
type Store struct {
	mu    sync.Mutex
	table core.Table
}

func New(t core.Table) *Store {
	return &Store{table: t.Clone()}
}

// NewFromFiles seeds the store from base/seed_steps.csv when present. The
// first CSV line is the header.
func NewFromFiles(base string) *Store {
	return New(readCSV(filepath.Join(base, "seed_steps.csv")))
}

// Read returns a copy of the current table.
func (s *Store) Read(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone(), nil
}

// WriteAll replaces the table with a copy of t.
func (s *Store) WriteAll(_ context.Context, t core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t.Clone()
	return nil
}

func readCSV(path string) core.Table {
	f, err := os.Open(path)
	if err != nil {
		return core.Table{}
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	lines, err := r.ReadAll()
	if err != nil || len(lines) == 0 {
		return core.Table{}
	}
	return core.Table{Header: lines[0], Rows: lines[1:]}
}
