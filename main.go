package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rorycl/garage/app"
	"github.com/rorycl/garage/car"
	"github.com/rorycl/garage/garage"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitValidation  = 2
	exitDuplicateID = 3
	exitNotFound    = 4
	exitParse       = 5
)

// exitCode maps an error from a command to the process exit code.
func exitCode(err error) int {
	var (
		pe *garage.ParseError
		ve *car.ValidationError
		de *garage.DuplicateIDError
		nf *garage.NotFoundError
	)
	// A ParseError may wrap the other kinds, so is checked first.
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return exitOK
	case errors.As(err, &pe):
		return exitParse
	case errors.As(err, &ve):
		return exitValidation
	case errors.As(err, &de):
		return exitDuplicateID
	case errors.As(err, &nf):
		return exitNotFound
	}
	return exitError
}

// main builds the CLI around a new App and runs the command given on the
// command line, reporting any error on a single line to stderr.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	application := app.New(os.Stdout, os.Stderr)
	cmd := BuildCLI(application)

	err := cmd.Run(ctx, os.Args)
	stop()
	code := exitCode(err)
	if code != exitOK {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
