package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore implements Store on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	return newSQLStore(db, sqliteDialect)
}

// NewPostgres creates a PostgreSQL-based store from a postgres:// DSN.
func NewPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return newSQLStore(db, postgresDialect)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	if err := CreateSchema(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// RecordScan appends a scan record.
func (s *SQLStore) RecordScan(rec ScanRecord) error {
	if err := rec.normalize(); err != nil {
		return err
	}

	_, err := s.db.Exec(s.dialect.rebind(`
		INSERT INTO scans (repo_url, owner, repo, status, scanned_files, findings, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`),
		rec.RepoURL,
		rec.Owner,
		rec.Repo,
		rec.Status,
		rec.ScannedFiles,
		rec.Findings,
		rec.Error,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}
	return nil
}

// RecentScans returns up to limit records, newest first.
func (s *SQLStore) RecentScans(limit int) ([]ScanRecord, error) {
	query := `
		SELECT id, repo_url, owner, repo, status, scanned_files, findings, error, created_at
		FROM scans
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.RepoURL, &rec.Owner, &rec.Repo, &rec.Status,
			&rec.ScannedFiles, &rec.Findings, &rec.Error, &created); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing scan timestamp: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AddSignup stores a validated signup.
func (s *SQLStore) AddSignup(su Signup) error {
	if err := su.Validate(); err != nil {
		return err
	}
	if su.CreatedAt.IsZero() {
		su.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(s.dialect.rebind(`
		INSERT INTO signups (email, repo_url, pricing_option, created_at)
		VALUES (?, ?, ?, ?)
	`),
		su.Email,
		su.RepoURL,
		su.PricingOption,
		su.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting signup: %w", err)
	}
	return nil
}

// Signups returns all signups, oldest first.
func (s *SQLStore) Signups() ([]Signup, error) {
	rows, err := s.db.Query(`
		SELECT id, email, repo_url, pricing_option, created_at
		FROM signups
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying signups: %w", err)
	}
	defer rows.Close()

	var out []Signup
	for rows.Next() {
		var su Signup
		var created string
		if err := rows.Scan(&su.ID, &su.Email, &su.RepoURL, &su.PricingOption, &created); err != nil {
			return nil, fmt.Errorf("scanning signup row: %w", err)
		}
		if su.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing signup timestamp: %w", err)
		}
		out = append(out, su)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
