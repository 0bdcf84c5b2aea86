// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"csvreduce/internal/datasource"
)

// Stdin is the path that selects standard input instead of a file.
const Stdin = "-"

var _ datasource.Source = (*Local)(nil)

// Local is a filesystem data source that opens files from the local disk.
type Local struct {
	path  string
	stdin io.Reader
}

// NewLocal returns a new Local data source bound to the provided filesystem
// path, or to standard input when path is "-".
func NewLocal(path string) *Local { return &Local{path: path, stdin: os.Stdin} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// IsStdin reports whether the source reads standard input.
func (l *Local) IsStdin() bool { return l.path == Stdin }

// Open opens the configured path for reading.
//
// Behavior:
//   - A canceled context returns its error without touching the filesystem.
//   - "-" returns standard input; closing it is a no-op.
//   - Regular files are opened with a sequential read-ahead hint where the
//     platform supports one.
//   - Filesystem errors are wrapped with the path and still satisfy
//     errors.Is(err, os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if l.IsStdin() {
		return io.NopCloser(l.stdin), nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
