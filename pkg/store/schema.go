package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// dialect captures the SQL differences between backends.
type dialect struct {
	name       string
	driver     string
	idColumn   string
	positional bool // $1, $2 placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite",
		idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT",
	}
	postgresDialect = dialect{
		name:       "postgres",
		driver:     "pgx",
		idColumn:   "BIGSERIAL PRIMARY KEY",
		positional: true,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB, d dialect) error {
	if err := createSchemaVersionTable(db, d); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createScansTable(db, d); err != nil {
		return fmt.Errorf("creating scans table: %w", err)
	}

	if err := createSignupsTable(db, d); err != nil {
		return fmt.Errorf("creating signups table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB, d dialect) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec(d.rebind("INSERT INTO schema_version (version) VALUES (?)"), SchemaVersion)
		return err
	}

	return nil
}

func createScansTable(db *sql.DB, d dialect) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id ` + d.idColumn + `,
			repo_url TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			repo TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			scanned_files INTEGER NOT NULL DEFAULT 0,
			findings INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func createSignupsTable(db *sql.DB, d dialect) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signups (
			id ` + d.idColumn + `,
			email TEXT NOT NULL,
			repo_url TEXT NOT NULL DEFAULT '',
			pricing_option TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	return err
}
