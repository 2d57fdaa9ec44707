package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// NamedQuery is an sql file with its declared parameters replaced by sqlx
// named parameters such as ":Make".
type NamedQuery struct {
	Body       []byte
	Parameters []string
}

// String provides a printable representation.
func (q NamedQuery) String() string {
	return fmt.Sprintf("params: %s\nbody:\n%s", strings.Join(q.Parameters, ", "), q.Body)
}

// paramValues are the literal forms a declared parameter value may take.
var paramValues = []string{
	`(?:[a-zA-Z_]\w*\([^\)]*\))`, // date('2020-01-01'), any_func(...)
	`(?:'[^']*')`,                // 'Toyota' or ''
	`(?:-?\d*\.?\d+)`,            // 2020 or 1.5 or -5
	`(?:null)`,                   // null
}

// paramDecl matches parameter declarations such as
//
//	,'Toyota' AS Make        /* @param */
//
// capturing the value, the " AS " separator, the parameter name and the marker
// comment. Exactly one space must precede "@param" inside the comment.
var paramDecl = regexp.MustCompile(fmt.Sprintf(
	`(?P<value>%s)(?P<as>\s+AS\s+)(?P<param>[A-Za-z0-9_]+)(?P<end>\s+/\* @param \*/)`,
	strings.Join(paramValues, "|"),
))

// parseParams turns an sql file which declares its parameters inline into a
// NamedQuery. This keeps the sql files runnable as they stand with the sqlite3
// command line, using the example values, while the program supplies its own.
//
// A declaration
//
//	,'Toyota' AS Make        /* @param */
//
// becomes
//
//	,:Make AS Make
//
// with "Make" recorded as a parameter. Parameters are recorded in file order.
func parseParams(sqlFile []byte) (*NamedQuery, error) {

	matches := paramDecl.FindAllSubmatch(sqlFile, -1)
	if len(matches) == 0 {
		return nil, errors.New("no parameter declarations found")
	}

	q := &NamedQuery{Parameters: make([]string, len(matches))}
	paramIdx := paramDecl.SubexpIndex("param")
	for i, m := range matches {
		q.Parameters[i] = string(m[paramIdx])
	}
	q.Body = paramDecl.ReplaceAll(sqlFile, []byte(`:${param}${as}${param}`))
	return q, nil
}

// LoadNamedQuery reads the sql file name from fileFS and parses its parameter
// declarations.
func LoadNamedQuery(fileFS fs.FS, name string) (*NamedQuery, error) {
	b, err := fs.ReadFile(fileFS, name)
	if err != nil {
		return nil, fmt.Errorf("file read error: %w", err)
	}
	q, err := parseParams(b)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}
	return q, nil
}
