// Package mounts provides file mounts which present either an embedded fs.FS or
// a directory on disk as the same fs.FS. This lets the SQL files compiled into
// the program be replaced by a directory of edited copies during development.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileMount is a named fs.FS backed by either an embedded fs.FS or a directory.
type FileMount struct {
	MountName string
	fs.FS
}

// InvalidPathError reports a mount name which is not a valid fs.ValidPath path.
type InvalidPathError struct {
	MountName string
}

// Error fulfills the Error interface requirement for InvalidPathError.
func (e InvalidPathError) Error() string {
	return fmt.Sprintf("mount name %q is not a valid fs.ValidPath path", e.MountName)
}

// NewFileMount mounts the directory dirPath, or if dirPath is "", the
// subdirectory mountName of embeddedFS. For example, given
//
//	//go:embed sql
//	var SQLEmbeddedFS embed.FS
//
// NewFileMount("sql", SQLEmbeddedFS, "") mounts the embedded "sql" directory
// at the root of the returned fs.FS, so that "schema.sql" rather than
// "sql/schema.sql" is opened, just as for NewFileMount("sql", SQLEmbeddedFS,
// "/path/to/sql").
func NewFileMount(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {

	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, InvalidPathError{mountName}
	}

	if dirPath == "" {
		subFS, err := fs.Sub(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("could not sub-mount embedded fs at %q: %w", mountName, err)
		}
		return &FileMount{mountName, subFS}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q error: %w", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q is not a directory", dirPath)
	}
	return &FileMount{mountName, os.DirFS(dirPath)}, nil
}

// Materialize writes the regular files of the mount into the directory dir,
// which must exist. Existing files are not overwritten. The names of the
// written files are returned.
func (fm *FileMount) Materialize(dir string) ([]string, error) {

	s, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("materialize target %q: %w", dir, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("materialize target %q is not a directory", dir)
	}

	var written []string
	err = fs.WalkDir(fm.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(fullPath, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(fm.FS, path)
		if err != nil {
			return fmt.Errorf("could not read %q from mount %s: %w", path, fm.MountName, err)
		}
		f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return fmt.Errorf("could not create %q: %w", fullPath, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not write %q: %w", fullPath, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, fullPath)
		return nil
	})
	return written, err
}
