package adapters

import (
	"context"

	"stepqueen/internal/core"
	"stepqueen/internal/services"
	"stepqueen/internal/sheets"
	"stepqueen/internal/storage"
)

var _ sheets.RecordStore = (*SQLiteAdapter)(nil)

// SQLiteAdapter adapts SQLiteRepository and SnapshotService to the sheets
// record store ports. Reads come straight from SQLite; writes go through the
// service so every new version is announced to the mirror worker.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.SnapshotService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.SnapshotService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// Read implements sheets.Reader
func (a *SQLiteAdapter) Read(ctx context.Context) (core.Table, error) {
	return a.storage.Read(ctx)
}

// WriteAll implements sheets.Writer
func (a *SQLiteAdapter) WriteAll(ctx context.Context, t core.Table) error {
	_, err := a.service.Save(ctx, t)
	return err
}

// Close releases the database and broker connections.
func (a *SQLiteAdapter) Close() error {
	return a.service.Close()
}
