// Package app is the central orchestrator for the garage commands. Each command
// loads the configuration and the garage, performs one operation and, if the
// garage changed, saves it before returning.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/rorycl/garage/car"
	"github.com/rorycl/garage/config"
	"github.com/rorycl/garage/db"
	"github.com/rorycl/garage/garage"
	"github.com/rorycl/garage/internal/mounts"
	"github.com/rorycl/garage/watch"
)

// Options are the settings common to every command, as given on the command
// line.
type Options struct {
	ConfigPath string // optional yaml configuration file
	GarageFile string // overrides the configured garage file
	Verbose    bool
}

// App runs the garage commands, writing results to stdout and log messages to
// stderr.
type App struct {
	stdout io.Writer
	stderr io.Writer
}

// New creates and returns a new App instance.
func New(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

// setup resolves the configuration for a command and makes its logger.
func (a *App) setup(opts Options) (*config.Config, *log.Logger, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
	}
	if opts.GarageFile != "" {
		cfg.GarageFile = opts.GarageFile
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "garage",
		Level:  level,
	})
	return cfg, logger, nil
}

// Add adds a car to the garage. If id is empty, one is made according to the
// configured id policy.
func (a *App) Add(ctx context.Context, opts Options, id, maker, model, year string) error {
	cfg, logger, err := a.setup(opts)
	if err != nil {
		return err
	}
	store, err := garage.Load(logger, cfg.GarageFile)
	if err != nil {
		return err
	}

	if id == "" {
		id, err = store.NextID(cfg.IDPolicy)
		if err != nil {
			return err
		}
	}
	c, err := car.New(id, maker, model, year)
	if err != nil {
		return err
	}
	if err := store.Add(c); err != nil {
		return err
	}
	if err := store.Save(cfg.GarageFile); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "added %s: %s\n", c.ID, c)
	return nil
}

// List prints the cars in the garage, one per line. An empty garage prints
// nothing.
func (a *App) List(ctx context.Context, opts Options) error {
	cfg, logger, err := a.setup(opts)
	if err != nil {
		return err
	}
	store, err := garage.Load(logger, cfg.GarageFile)
	if err != nil {
		return err
	}
	a.printCars(store)
	return nil
}

// Delete removes the car with the given identifier from the garage.
func (a *App) Delete(ctx context.Context, opts Options, id string) error {
	cfg, logger, err := a.setup(opts)
	if err != nil {
		return err
	}
	store, err := garage.Load(logger, cfg.GarageFile)
	if err != nil {
		return err
	}
	c, err := store.Delete(id)
	if err != nil {
		return err
	}
	if err := store.Save(cfg.GarageFile); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted %s: %s\n", c.ID, c)
	return nil
}

// Export copies the garage into the SQLite database at dbPath, or the
// configured database if dbPath is empty.
func (a *App) Export(ctx context.Context, opts Options, dbPath string) error {
	cfg, logger, err := a.setup(opts)
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.Export.DatabasePath
	}
	store, err := garage.Load(logger, cfg.GarageFile)
	if err != nil {
		return err
	}

	sqlFS, err := mounts.NewFileMount("sql", db.SQLEmbeddedFS, cfg.Export.SQLDir)
	if err != nil {
		return fmt.Errorf("could not mount sql fs: %w", err)
	}
	conn, err := db.NewConnection(ctx, dbPath, sqlFS)
	if err != nil {
		return fmt.Errorf("database setup error: %w", err)
	}
	defer conn.Close()

	n, err := conn.ReplaceCars(ctx, store.List())
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	logger.Debug("export complete", "database", dbPath, "cars", n)
	fmt.Fprintf(a.stdout, "exported %d cars to %s\n", n, dbPath)
	return nil
}

// WriteSQL writes the embedded export sql files to dir, so that they can be
// edited and used by setting export.sql_dir.
func (a *App) WriteSQL(ctx context.Context, opts Options, dir string) error {
	if _, _, err := a.setup(opts); err != nil {
		return err
	}
	sqlFS, err := mounts.NewFileMount("sql", db.SQLEmbeddedFS, "")
	if err != nil {
		return fmt.Errorf("could not mount sql fs: %w", err)
	}
	written, err := sqlFS.Materialize(dir)
	if err != nil {
		return err
	}
	for _, w := range written {
		fmt.Fprintln(a.stdout, w)
	}
	return nil
}

// Watch prints the garage and then prints it again each time the garage file
// changes, until ctx is cancelled. A file which cannot be parsed, perhaps as it
// is being edited, is reported and skipped.
func (a *App) Watch(ctx context.Context, opts Options) error {
	cfg, logger, err := a.setup(opts)
	if err != nil {
		return err
	}
	store, err := garage.Load(logger, cfg.GarageFile)
	if err != nil {
		return err
	}
	a.printCars(store)

	fcn, err := watch.NewFileChangeNotifier(cfg.GarageFile)
	if err != nil {
		return err
	}
	logger.Info("watching for changes", "path", cfg.GarageFile)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fcn.Watch(ctx)
	})
	g.Go(func() error {
		for range fcn.Update() {
			store, err := garage.Load(logger, cfg.GarageFile)
			if err != nil {
				logger.Warn("could not reload garage", "err", err)
				continue
			}
			fmt.Fprintln(a.stdout)
			a.printCars(store)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) printCars(store *garage.Store) {
	for c := range store.List() {
		fmt.Fprintf(a.stdout, "%s: %s\n", c.ID, c)
	}
}
