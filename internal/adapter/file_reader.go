// Package adapter contains the infrastructure ports ngraph's domain depends on:
// reading manifests, switching the working directory and persisting graph
// snapshots.
package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	m "ngraph.dev/pkg/ngraph/internal/model"
)

// FileReader is the manifest parser's view of the filesystem. The working
// directory is a property of the reader, not of the process, so nested
// subninja inclusions can switch and restore it without global side effects.
type FileReader interface {
	// ReadFile loads a file, resolving relative paths against the working directory.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// Getwd returns the current working directory.
	Getwd(ctx context.Context) (m.Path, error)

	// Chdir switches the working directory. The target must be a directory.
	Chdir(ctx context.Context, path m.Path) error

	// Fork returns an independent reader starting in the same directory.
	Fork() FileReader
}

// LocalFileReader implements FileReader on top of an afero filesystem.
type LocalFileReader struct {
	fs  afero.Fs
	cwd string
}

// NewLocalFileReader returns a reader over the OS filesystem starting in the
// process working directory.
func NewLocalFileReader() *LocalFileReader {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return NewFileReader(afero.NewOsFs(), m.Path(cwd))
}

// NewFileReader returns a reader over fs starting in cwd.
func NewFileReader(fs afero.Fs, cwd m.Path) *LocalFileReader {
	return &LocalFileReader{fs: fs, cwd: filepath.Clean(string(cwd))}
}

// Fs returns the underlying filesystem.
func (r *LocalFileReader) Fs() afero.Fs {
	return r.fs
}

// Fork returns a reader over the same filesystem with its own working directory.
func (r *LocalFileReader) Fork() FileReader {
	return &LocalFileReader{fs: r.fs, cwd: r.cwd}
}

func (r *LocalFileReader) resolve(path m.Path) string {
	p := string(path)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(r.cwd, p)
}

// ReadFile loads the file contents.
func (r *LocalFileReader) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return afero.ReadFile(r.fs, r.resolve(path))
}

// Getwd returns the current working directory.
func (r *LocalFileReader) Getwd(ctx context.Context) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return m.Path(r.cwd), nil
}

// Chdir switches the working directory.
func (r *LocalFileReader) Chdir(ctx context.Context, path m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := r.resolve(path)

	info, err := r.fs.Stat(target)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", target)
	}

	r.cwd = target

	return nil
}
