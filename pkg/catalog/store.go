// Package catalog implements the system-wide, persistent, transactional
// catalog of pipelines, model versions, and resources. It is
// backed by a pure-Go sqlite driver so the store needs no cgo toolchain,
// grounded on the reference corpus's internal/store/sqlite3 shape.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "modernc.org/sqlite"

	"github.com/nnstreamer/ml-service-core/pkg/logging"
)

const (
	tablePipeline = "catalog_pipeline"
	tableModel    = "catalog_model"
	tableResource = "catalog_resource"
	tableDBInfo   = "tblMLDBInfo"

	schemaVersion = 1
)

// Store is the SQL-backed catalog store. One writer at a time is
// enforced by writeMu; SQL transactions bracket every multi-statement
// update so readers never observe partial state.
type Store struct {
	db   *sql.DB
	goqu *goqu.Database

	writeMu sync.Mutex
	logger  logging.Interface
}

// Open connects to the sqlite database at path, creating it and its
// tables if they do not already exist.
func Open(ctx context.Context, path string, logger logging.Interface) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1) // pure-Go sqlite driver: one connection keeps writer serialization simple

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		goqu:   goqu.New("sqlite3", db),
		logger: logger,
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + tableDBInfo + ` (
			name TEXT PRIMARY KEY,
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tablePipeline + ` (
			key TEXT PRIMARY KEY,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tableModel + ` (
			key TEXT NOT NULL,
			version INTEGER NOT NULL,
			active INTEGER NOT NULL DEFAULT 0,
			valid INTEGER NOT NULL DEFAULT 1,
			path TEXT NOT NULL,
			description TEXT,
			app_info TEXT,
			PRIMARY KEY (key, version)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tableResource + ` (
			key TEXT NOT NULL,
			path TEXT NOT NULL,
			description TEXT,
			app_info TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	for _, table := range []string{tablePipeline, tableModel, tableResource} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+tableDBInfo+` (name, version) VALUES (?, ?)`,
			table, schemaVersion,
		); err != nil {
			return fmt.Errorf("record schema version for %s: %w", table, err)
		}
	}

	return tx.Commit()
}
