package garage

import "fmt"

// ParseError reports a corrupt garage file.
type ParseError struct {
	Path string
	Line int // 0 if the failure is not tied to a line
	Err  error
}

// Error fulfills the Error interface requirement for ParseError.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("garage file %q line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("garage file %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateIDError reports an attempt to add a car whose identifier is already
// in use.
type DuplicateIDError struct {
	ID string
}

// Error fulfills the Error interface requirement for DuplicateIDError.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("a car with identifier %q already exists", e.ID)
}

// NotFoundError reports a lookup of an unknown identifier.
type NotFoundError struct {
	ID string
}

// Error fulfills the Error interface requirement for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no car with identifier %q", e.ID)
}
