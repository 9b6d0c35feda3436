// Package store persists scan notifications and signups.
package store

import (
	"fmt"
	"strings"
)

// Store provides persistence for scan records and signups.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, PostgreSQL, memory).
type Store interface {
	// RecordScan appends a scan record.
	RecordScan(rec ScanRecord) error

	// RecentScans returns up to limit records, newest first.
	RecentScans(limit int) ([]ScanRecord, error)

	// AddSignup stores a validated signup.
	AddSignup(s Signup) error

	// Signups returns all signups, oldest first.
	Signups() ([]Signup, error)

	// Close closes the underlying connection.
	Close() error
}

// Open creates a Store from a datastore string:
//
//	""  or "memory"                  in-memory store
//	postgres://... or postgresql://   PostgreSQL via pgx
//	sqlite://<path>, <path>, :memory: SQLite
func Open(datastore string) (Store, error) {
	switch {
	case datastore == "" || datastore == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(datastore, "postgres://"), strings.HasPrefix(datastore, "postgresql://"):
		return NewPostgres(datastore)
	case strings.HasPrefix(datastore, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(datastore, "sqlite://"))
	case strings.Contains(datastore, "://"):
		return nil, fmt.Errorf("unsupported datastore %q", datastore)
	default:
		return NewSQLite(datastore)
	}
}
