package db

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rorycl/garage/car"
)

// setupTestDB opens a database in a temporary directory using the embedded sql.
func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "garage.db")
	testDB, err := NewConnection(context.Background(), path, sqlFS)
	if err != nil {
		t.Fatalf("test database opening error: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.Close(); err != nil {
			t.Errorf("unexpected db close error: %v", err)
		}
	})
	return testDB, path
}

var testCars = []car.Car{
	{ID: "2", Make: "Tesla", Model: "Model 3", Year: 2020},
	{ID: "1", Make: "Rivian", Model: "R1T", Year: 2023},
	{ID: "x", Make: "Honda", Model: "Civic", Year: 1998},
}

func TestReplaceCars(t *testing.T) {

	ctx := context.Background()
	testDB, _ := setupTestDB(t)

	n, err := testDB.ReplaceCars(ctx, slices.Values(testCars))
	if err != nil {
		t.Fatalf("replace cars error: %v", err)
	}
	if got, want := n, len(testCars); got != want {
		t.Errorf("got %d cars written want %d", got, want)
	}

	got, err := testDB.Cars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testCars, got); diff != "" {
		t.Errorf("exported cars mismatch (-want +got):\n%s", diff)
	}

	// A second export replaces the first.
	if _, err := testDB.ReplaceCars(ctx, slices.Values(testCars[1:2])); err != nil {
		t.Fatal(err)
	}
	got, err = testDB.Cars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testCars[1:2], got); diff != "" {
		t.Errorf("exported cars mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceCarsRollback(t *testing.T) {

	ctx := context.Background()
	testDB, _ := setupTestDB(t)

	if _, err := testDB.ReplaceCars(ctx, slices.Values(testCars)); err != nil {
		t.Fatal(err)
	}

	// Duplicate identifiers violate the primary key.
	dupes := []car.Car{testCars[0], testCars[0]}
	if _, err := testDB.ReplaceCars(ctx, slices.Values(dupes)); err == nil {
		t.Fatal("expected insert error")
	}

	got, err := testDB.Cars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testCars, got); diff != "" {
		t.Errorf("failed export changed cars (-want +got):\n%s", diff)
	}
}

func TestReopen(t *testing.T) {

	ctx := context.Background()
	testDB, path := setupTestDB(t)
	if _, err := testDB.ReplaceCars(ctx, slices.Values(testCars)); err != nil {
		t.Fatal(err)
	}

	// The schema is idempotent, so an existing export can be reopened.
	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}
	again, err := NewConnection(ctx, path, sqlFS)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer again.Close()

	got, err := again.Cars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testCars, got); diff != "" {
		t.Errorf("exported cars mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryNeedsSharedCache(t *testing.T) {

	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewConnection(context.Background(), ":memory:", sqlFS); err == nil {
		t.Error("expected error for in-memory database without shared cache")
	}
}

func TestVerifyArgs(t *testing.T) {

	stmt := &namedStmt{sqlFile: "x.sql", params: []string{"A", "B"}}
	if err := stmt.verifyArgs(map[string]any{"A": 1, "B": 2}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := stmt.verifyArgs(map[string]any{"A": 1}); err == nil {
		t.Error("expected error for too few arguments")
	}
	if err := stmt.verifyArgs(map[string]any{"A": 1, "C": 2}); err == nil {
		t.Error("expected error for misnamed argument")
	}
}
