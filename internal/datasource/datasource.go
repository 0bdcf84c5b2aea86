// Package datasource defines where reduction input comes from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw input of one run. Implementations live in subpackages.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
