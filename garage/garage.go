// Package garage provides the garage store: an ordered, in-memory collection of
// cars which is loaded from and saved to a CSV file.
//
// The file has a header row (see car.Header) followed by one row per car in
// insertion order. A Store is not safe for concurrent use and no locking of the
// file is attempted; a single process is expected to own the file while it
// runs.
package garage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rorycl/garage/car"
)

// defaultFileMode is used when saving a garage file which does not yet exist.
const defaultFileMode fs.FileMode = 0644

// Store is the in-memory garage.
type Store struct {
	cars   []car.Car
	logger *log.Logger
}

// New returns an empty Store. A nil logger discards log output.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{logger: logger}
}

// Load reads the garage file at path into a new Store. A missing file is not an
// error, it simply results in an empty garage. Rows which cannot be parsed into
// a car are reported as a *ParseError.
func Load(logger *log.Logger, path string) (*Store, error) {
	s := New(logger)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("garage file not found, starting with an empty garage", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open garage file: %w", err)
	}
	defer f.Close()

	if err := s.read(f, path); err != nil {
		return nil, err
	}
	s.logger.Debug("garage loaded", "path", path, "cars", len(s.cars))
	return s, nil
}

// read parses the csv data in r, the first row of which must be the header.
func (s *Store) read(r io.Reader, path string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // column counts are checked per row below
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil // empty file
	}
	if err != nil {
		return parseError(path, err)
	}
	if !isHeader(header) {
		return &ParseError{
			Path: path,
			Line: 1,
			Err:  fmt.Errorf("unexpected header %q, want %q", strings.Join(header, ","), strings.Join(car.Header, ",")),
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return parseError(path, err)
		}
		line, _ := reader.FieldPos(0)

		c, err := car.FromRecord(record)
		if err != nil {
			return &ParseError{Path: path, Line: line, Err: err}
		}
		if err := s.Add(c); err != nil {
			return &ParseError{Path: path, Line: line, Err: err}
		}
	}
}

// parseError converts a csv reader error into a *ParseError, keeping the line
// number where the reader reports one.
func parseError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Path: path, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Path: path, Err: err}
}

// isHeader reports whether row is the garage file header, ignoring case and
// surrounding space.
func isHeader(row []string) bool {
	if len(row) != len(car.Header) {
		return false
	}
	for i, h := range car.Header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), h) {
			return false
		}
	}
	return true
}

// Add appends c to the garage. Identifiers are unique; adding a car with an
// identifier already present returns a *DuplicateIDError and leaves the store
// unchanged. The car's fields are validated and trimmed as by car.New, so a
// car which could not be read back from the garage file is refused with a
// *car.ValidationError.
func (s *Store) Add(c car.Car) error {
	c, err := car.New(c.ID, c.Make, c.Model, strconv.Itoa(c.Year))
	if err != nil {
		return err
	}
	if _, ok := s.Get(c.ID); ok {
		return &DuplicateIDError{ID: c.ID}
	}
	s.cars = append(s.cars, c)
	return nil
}

// List iterates over the cars in insertion order. The sequence may be ranged
// over any number of times.
func (s *Store) List() iter.Seq[car.Car] {
	return func(yield func(car.Car) bool) {
		for _, c := range s.cars {
			if !yield(c) {
				return
			}
		}
	}
}

// Get returns the car with the given identifier.
func (s *Store) Get(id string) (car.Car, bool) {
	i := s.index(id)
	if i < 0 {
		return car.Car{}, false
	}
	return s.cars[i], true
}

// Len returns the number of cars in the garage.
func (s *Store) Len() int {
	return len(s.cars)
}

// Delete removes the car with the given identifier, returning it. A
// *NotFoundError is returned if there is no such car.
func (s *Store) Delete(id string) (car.Car, error) {
	i := s.index(id)
	if i < 0 {
		return car.Car{}, &NotFoundError{ID: id}
	}
	c := s.cars[i]
	s.cars = slices.Delete(s.cars, i, i+1)
	return c, nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.cars, func(c car.Car) bool {
		return c.ID == id
	})
}

// Save writes the whole garage to path, replacing any existing file. The data
// is written to a temporary file in the same directory which is then renamed
// over path, so that a failed save leaves the previous file intact.
func (s *Store) Save(path string) (err error) {
	mode := defaultFileMode
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary garage file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = s.write(tmp); err != nil {
		return fmt.Errorf("could not write garage file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("could not set garage file mode: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("could not sync garage file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close garage file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace garage file: %w", err)
	}
	s.logger.Debug("garage saved", "path", path, "cars", len(s.cars))
	return nil
}

// write writes the header and every car to w as csv.
func (s *Store) write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(car.Header); err != nil {
		return err
	}
	for c := range s.List() {
		if err := writer.Write(c.Record()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
