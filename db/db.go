// Package db exports the garage to an SQLite database for ad hoc querying.
//
// Each statement is held in an sql file in the `sql` directory which can also be
// run with the sqlite3 command line. Statements taking arguments declare them
// inline (see parameterize.go) and are prepared as sqlx named statements.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"iter"
	"strings"

	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver

	"github.com/rorycl/garage/car"
)

// SQLEmbeddedFS holds the sql files under "sql".
//
//go:embed sql
var SQLEmbeddedFS embed.FS

// sql file names, relative to the sql mount.
const (
	schemaSQL     = "schema.sql"
	carInsertSQL  = "car_insert.sql"
	carsDeleteSQL = "cars_delete.sql"
	carsSQL       = "cars.sql"
)

// namedStmt is an sql file prepared as an sqlx NamedStmt expecting the
// declared parameters.
type namedStmt struct {
	sqlFile string
	params  []string
	*sqlx.NamedStmt
}

// verifyArgs checks that exactly the declared parameters are provided.
func (n *namedStmt) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(n.params); got != want {
		return fmt.Errorf("%q expects %d arguments, got %d", n.sqlFile, want, got)
	}
	for _, p := range n.params {
		if _, ok := args[p]; !ok {
			return fmt.Errorf("%q argument %q missing", n.sqlFile, p)
		}
	}
	return nil
}

// DB wraps an sqlx connection to the export database.
type DB struct {
	*sqlx.DB
	sqlFS fs.FS

	carInsertStmt *namedStmt
}

// NewConnection opens the SQLite database at dbPath, creating it if necessary,
// loads the schema and prepares statements from the sql files in sqlFS.
//
// In-memory databases must use a shared cache, for example
// "file::memory:?cache=shared", so that every pooled connection sees the same
// tables.
func NewConnection(ctx context.Context, dbPath string, sqlFS fs.FS) (*DB, error) {

	dataSource := fmt.Sprintf("%s?_pragma=foreign_keys(1)", dbPath)
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain 'cache=shared'", dbPath)
		}
		dataSource = dbPath
	}

	dbDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}
	if err := dbDB.PingContext(ctx); err != nil {
		_ = dbDB.Close()
		return nil, err
	}

	db := &DB{
		DB:    sqlx.NewDb(dbDB, "sqlite"),
		sqlFS: sqlFS,
	}

	// Statements can only be prepared against existing tables.
	if err := db.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.prepareNamedStatements(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}
	return db, nil
}

// initSchema creates the tables if they don't already exist.
func (db *DB) initSchema(ctx context.Context) error {
	schema, err := fs.ReadFile(db.sqlFS, schemaSQL)
	if err != nil {
		return fmt.Errorf("could not read schema file %q: %w", schemaSQL, err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

func (db *DB) prepareNamedStatements(ctx context.Context) error {
	var err error
	db.carInsertStmt, err = db.prepNamedStatement(ctx, carInsertSQL)
	if err != nil {
		return fmt.Errorf("car insert statement error: %w", err)
	}
	return nil
}

func (db *DB) prepNamedStatement(ctx context.Context, name string) (*namedStmt, error) {
	query, err := LoadNamedQuery(db.sqlFS, name)
	if err != nil {
		return nil, err
	}
	stmt, err := db.PrepareNamedContext(ctx, string(query.Body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", name, err)
	}
	return &namedStmt{name, query.Parameters, stmt}, nil
}

// Close closes the prepared statements and the database.
func (db *DB) Close() error {
	if db.carInsertStmt != nil {
		_ = db.carInsertStmt.Close()
	}
	return db.DB.Close()
}

// ReplaceCars replaces the exported cars with cars in a single transaction,
// returning the number of cars written.
func (db *DB) ReplaceCars(ctx context.Context, cars iter.Seq[car.Car]) (int, error) {

	deleteSQL, err := fs.ReadFile(db.sqlFS, carsDeleteSQL)
	if err != nil {
		return 0, fmt.Errorf("could not read %q: %w", carsDeleteSQL, err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if _, err := tx.ExecContext(ctx, string(deleteSQL)); err != nil {
		return 0, fmt.Errorf("cars delete error: %w", err)
	}

	insert := tx.NamedStmtContext(ctx, db.carInsertStmt.NamedStmt)
	n := 0
	for c := range cars {
		n++
		args := map[string]any{
			"ID":       c.ID,
			"Make":     c.Make,
			"Model":    c.Model,
			"Year":     c.Year,
			"Position": n,
		}
		if err := db.carInsertStmt.verifyArgs(args); err != nil {
			return 0, err
		}
		if _, err := insert.ExecContext(ctx, args); err != nil {
			return 0, fmt.Errorf("car %q insert error: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("export commit error: %w", err)
	}
	return n, nil
}

// exportedCar is a row of the cars table.
type exportedCar struct {
	ID       string `db:"id"`
	Make     string `db:"make"`
	Model    string `db:"model"`
	Year     int    `db:"year"`
	Position int    `db:"position"`
}

// Cars returns the exported cars in garage order.
func (db *DB) Cars(ctx context.Context) ([]car.Car, error) {
	query, err := fs.ReadFile(db.sqlFS, carsSQL)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", carsSQL, err)
	}

	var rows []exportedCar
	if err := db.SelectContext(ctx, &rows, string(query)); err != nil {
		return nil, fmt.Errorf("cars select error: %w", err)
	}

	cars := make([]car.Car, len(rows))
	for i, r := range rows {
		cars[i] = car.Car{ID: r.ID, Make: r.Make, Model: r.Model, Year: r.Year}
	}
	return cars, nil
}
