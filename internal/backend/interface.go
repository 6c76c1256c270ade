package backend

import (
	"context"

	"debtplan/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger instance and optional cleanup function
type BackendResult struct {
	Ledger  ledger.Ledger
	Cleanup CleanupFunc
	// Ping checks backend health for readiness probes; nil when the backend
	// has nothing to check.
	Ping func(ctx context.Context) error
}

// Factory creates ledgers based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath      string
	SnapshotRetention int

	// Google Sheets specific; credentials are read from the environment
	GoogleSpreadsheetID string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
