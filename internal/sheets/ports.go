package sheets

import (
	"context"

	"stepqueen/internal/core"
)

// Ports for outbound adapters. A record store holds the canonical table and
// is only ever read whole and replaced whole.
type (
	Reader interface {
		// Read returns the full table. An empty store yields an empty table.
		Read(ctx context.Context) (core.Table, error)
	}

	Writer interface {
		// WriteAll replaces the entire table contents.
		WriteAll(ctx context.Context, t core.Table) error
	}

	RecordStore interface {
		Reader
		Writer
	}
)
