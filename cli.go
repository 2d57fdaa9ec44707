package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rorycl/garage/app"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Add(ctx context.Context, opts app.Options, id, maker, model, year string) error
	List(ctx context.Context, opts app.Options) error
	Delete(ctx context.Context, opts app.Options, id string) error
	Export(ctx context.Context, opts app.Options, dbPath string) error
	WriteSQL(ctx context.Context, opts app.Options, dir string) error
	Watch(ctx context.Context, opts app.Options) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(a Applicator) *cli.Command {

	// Global flags, given before the command name.
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to an optional yaml configuration file",
		Sources: cli.EnvVars("GARAGE_CONFIG"),
	}
	fileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "path to the garage csv file (default \"garage.csv\")",
		Sources: cli.EnvVars("GARAGE_FILE"),
	}
	verboseFlag := &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log debug messages to stderr",
	}

	options := func(c *cli.Command) app.Options {
		return app.Options{
			ConfigPath: c.String("config"),
			GarageFile: c.String("file"),
			Verbose:    c.Bool("verbose"),
		}
	}

	addCmd := &cli.Command{
		Name:      "add",
		Usage:     "Add a car to the garage",
		ArgsUsage: "<make> <model> <year>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "identifier for the car (default: made by the id policy)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 3); err != nil {
				return err
			}
			args := c.Args()
			return a.Add(ctx, options(c), c.String("id"), args.Get(0), args.Get(1), args.Get(2))
		},
	}

	listCmd := &cli.Command{
		Name:    "list",
		Usage:   "List the cars in the garage",
		Aliases: []string{"ls"},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 0); err != nil {
				return err
			}
			return a.List(ctx, options(c))
		},
	}

	deleteCmd := &cli.Command{
		Name:      "delete",
		Usage:     "Delete a car from the garage",
		Aliases:   []string{"rm"},
		ArgsUsage: "<identifier>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 1); err != nil {
				return err
			}
			return a.Delete(ctx, options(c), c.Args().First())
		},
	}

	exportCmd := &cli.Command{
		Name:  "export",
		Usage: "Export the garage to an SQLite database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "path to the database (default: export.database_path from config)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 0); err != nil {
				return err
			}
			return a.Export(ctx, options(c), c.String("db"))
		},
	}

	sqlCmd := &cli.Command{
		Name:      "sql",
		Usage:     "Write the export sql files to a directory for editing",
		ArgsUsage: "<directory>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 1); err != nil {
				return err
			}
			return a.WriteSQL(ctx, options(c), c.Args().First())
		},
	}

	watchCmd := &cli.Command{
		Name:  "watch",
		Usage: "List the garage each time the garage file changes",
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := wantArgs(c, 0); err != nil {
				return err
			}
			return a.Watch(ctx, options(c))
		},
	}

	rootCmd := &cli.Command{
		Name:     "garage",
		Usage:    "Keep a list of cars in a csv file",
		Flags:    []cli.Flag{configFlag, fileFlag, verboseFlag},
		Commands: []*cli.Command{addCmd, listCmd, deleteCmd, exportCmd, sqlCmd, watchCmd},
	}

	return rootCmd
}

// wantArgs checks the number of positional arguments given to a command.
func wantArgs(c *cli.Command, n int) error {
	if got := c.Args().Len(); got != n {
		if c.ArgsUsage == "" {
			return fmt.Errorf("%s takes no arguments, got %d", c.Name, got)
		}
		return fmt.Errorf("usage: %s %s (got %d arguments)", c.Name, c.ArgsUsage, got)
	}
	return nil
}
