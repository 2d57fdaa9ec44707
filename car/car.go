// Package car describes a single car record held in the garage and its
// representation as a row in the garage CSV file.
package car

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Header is the header row of the garage CSV file. Each record is written in
// the same column order.
var Header = []string{"identifier", "make", "model", "year"}

// Car is a single car record. A Car is immutable once made; construct one with
// New or FromRecord so that its fields are validated.
type Car struct {
	ID    string
	Make  string
	Model string
	Year  int
}

// ValidationError reports a malformed car field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error fulfills the Error interface requirement for ValidationError.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// New makes a Car from its string fields, as provided on the command line or
// read from a file. Surrounding whitespace is removed from each field, and
// fields may not contain control characters such as line breaks.
func New(id, maker, model, year string) (Car, error) {
	c := Car{
		ID:    strings.TrimSpace(id),
		Make:  strings.TrimSpace(maker),
		Model: strings.TrimSpace(model),
	}
	for _, f := range []struct{ name, value string }{
		{"identifier", c.ID},
		{"make", c.Make},
		{"model", c.Model},
		{"year", strings.TrimSpace(year)},
	} {
		if f.value == "" {
			return Car{}, &ValidationError{Field: f.name, Reason: "must not be empty"}
		}
		if strings.ContainsFunc(f.value, unicode.IsControl) {
			return Car{}, &ValidationError{Field: f.name, Value: f.value, Reason: "must not contain control characters"}
		}
	}

	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return Car{}, &ValidationError{Field: "year", Value: year, Reason: "must be a whole number"}
	}
	c.Year = y
	return c, nil
}

// FromRecord makes a Car from a CSV row in Header order.
func FromRecord(record []string) (Car, error) {
	if got, want := len(record), len(Header); got != want {
		return Car{}, fmt.Errorf("expected %d columns, got %d", want, got)
	}
	return New(record[0], record[1], record[2], record[3])
}

// Record returns the car as a CSV row in Header order.
func (c Car) Record() []string {
	return []string{c.ID, c.Make, c.Model, strconv.Itoa(c.Year)}
}

// Equal reports whether c and other share an identifier.
func (c Car) Equal(other Car) bool {
	return c.ID == other.ID
}

// String provides a printable representation such as "Toyota Corolla 2020".
func (c Car) String() string {
	return fmt.Sprintf("%s %s %d", c.Make, c.Model, c.Year)
}
