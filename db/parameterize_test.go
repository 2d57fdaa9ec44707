package db

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseParams(t *testing.T) {

	tests := []struct {
		input        string
		expectedArgs []string
		expectedBody string
		isErr        bool
	}{
		{
			input:        `'Toyota' AS Make   /* @param */`,
			expectedArgs: []string{"Make"},
			expectedBody: `:Make AS Make`,
		},
		{
			input: `nothing`,
			isErr: true,
		},
		{
			input: `'Toyota' AS Make /*@param*/`,
			isErr: true,
		},
		{
			input: `
WITH variables AS (
	SELECT
		'1' AS ID                  /* @param */
		,'' AS Model               /* @param */
		,2020 AS Year              /* @param */
		,-1.5 AS Offset            /* @param */
		,date('2020-01-01') AS Day /* @param */
		,null AS Nothing           /* @param */
		,'raw string' AS RawString
)
`,
			expectedArgs: []string{"ID", "Model", "Year", "Offset", "Day", "Nothing"},
			expectedBody: `
WITH variables AS (
	SELECT
		:ID AS ID
		,:Model AS Model
		,:Year AS Year
		,:Offset AS Offset
		,:Day AS Day
		,:Nothing AS Nothing
		,'raw string' AS RawString
)
`,
		},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("test_%d", ii), func(t *testing.T) {
			result, err := parseParams([]byte(tt.input))
			if tt.isErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expectedArgs, result.Parameters); diff != "" {
				t.Errorf("Parameters mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.expectedBody, string(result.Body)); diff != "" {
				t.Errorf("Body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadNamedQuery(t *testing.T) {

	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}

	q, err := LoadNamedQuery(sqlFS, carInsertSQL)
	if err != nil {
		t.Fatalf("unexpected parameterization error: %v", err)
	}
	if diff := cmp.Diff([]string{"ID", "Make", "Model", "Year", "Position"}, q.Parameters); diff != "" {
		t.Errorf("Parameters mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadNamedQuery(sqlFS, "doesNotExist.sql")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}

	// The schema declares no parameters.
	if _, err := LoadNamedQuery(sqlFS, schemaSQL); err == nil {
		t.Fatal("expected error for file without parameters")
	}
}
