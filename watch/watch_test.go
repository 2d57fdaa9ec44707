package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewFileChangeNotifierMissingDir(t *testing.T) {
	if _, err := NewFileChangeNotifier(filepath.Join(t.TempDir(), "missing", "garage.csv")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatch(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "garage.csv")
	if err := os.WriteFile(path, []byte("identifier,make,model,year\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fcn, err := NewFileChangeNotifier(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- fcn.Watch(ctx)
	}()

	wait := func(what string) {
		t.Helper()
		select {
		case _, ok := <-fcn.Update():
			if !ok {
				t.Fatalf("%s: update channel closed", what)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s: no update received", what)
		}
	}

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fcn.Update():
		t.Fatal("update received for another file")
	case <-time.After(10 * fcn.flushDuration):
	}

	// Write in place.
	if err := os.WriteFile(path, []byte("identifier,make,model,year\n1,Ford,Ka,2001\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wait("write")

	// Replace by rename, as a garage save does.
	tmp := filepath.Join(dir, ".garage.csv.tmp")
	if err := os.WriteFile(tmp, []byte("identifier,make,model,year\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	wait("rename")

	cancel()
	select {
	case err := <-watchErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}

	// The update channel is closed once Watch returns.
	for range fcn.Update() {
	}
}
