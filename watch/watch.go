// Package watch notifies consumers when the garage file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// defaultFlushDuration is the time given to gather multiple writes, such as
// those made by editors, into a single update.
const defaultFlushDuration time.Duration = 50 * time.Millisecond

// FileChangeNotifier watches a single file for writes or replacement.
//
// The directory holding the file is watched rather than the file itself, since
// saving the garage renames a new file over the old one, which would end a
// watch on the file.
type FileChangeNotifier struct {
	dir           string
	name          string
	watcher       *fsnotify.Watcher
	update        chan struct{}
	flushDuration time.Duration
}

// NewFileChangeNotifier registers a watch for the file at path. The file need
// not exist yet, but its directory must.
func NewFileChangeNotifier(path string) (*FileChangeNotifier, error) {

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %q: %w", path, err)
	}
	fcn := FileChangeNotifier{
		dir:           filepath.Dir(abs),
		name:          filepath.Base(abs),
		update:        make(chan struct{}),
		flushDuration: defaultFlushDuration,
	}

	check, err := os.Stat(fcn.dir)
	if err != nil {
		return nil, fmt.Errorf("dir %q not found: %w", fcn.dir, err)
	}
	if !check.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", fcn.dir)
	}

	fcn.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := fcn.watcher.Add(fcn.dir); err != nil {
		_ = fcn.watcher.Close()
		return nil, fmt.Errorf("fsnotify add error for dir %q: %w", fcn.dir, err)
	}
	return &fcn, nil
}

// Watch blocks, watching for changes to the file until ctx is cancelled or the
// watcher fails, and so needs to be run in a goroutine. Consumers should range
// over Update to receive notice of each change; the channel is closed when
// Watch returns.
func (fcn *FileChangeNotifier) Watch(ctx context.Context) error {

	// eventChan buffers bursts of events.
	eventChan := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-fcn.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)

			case e, ok := <-fcn.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				if filepath.Base(e.Name) != fcn.name {
					continue
				}
				// A save arrives as a create (rename over the file), an
				// edit in place as a write.
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Remove) {
					continue
				}
				select {
				case eventChan <- struct{}{}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	// Gather events arriving within flushDuration of each other into one
	// update.
	g.Go(func() error {
		flush := false
		timer := time.NewTicker(fcn.flushDuration)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-eventChan:
				flush = true
				timer.Reset(fcn.flushDuration)
			case <-timer.C:
				if !flush {
					continue
				}
				select {
				case fcn.update <- struct{}{}:
					flush = false
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	err := g.Wait()
	close(fcn.update)
	_ = fcn.watcher.Close()
	return err
}

// Update returns a channel signalling a change to the file.
func (fcn *FileChangeNotifier) Update() <-chan struct{} {
	return fcn.update
}
