// Package csv reads simple comma-separated input line by line.
//
// There is no quoting support: a line is split on every ',' and the first
// field is a name, the rest decimal numerals. Reading never buffers more
// than the current line, so inputs of any size stream through in constant
// memory.
package csv

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"

	"github.com/zeebo/xxh3"
)

// readBufSize is the bufio size for the input side of a run.
const readBufSize = 4 << 20 // 4 MiB

// logEveryN controls the reader progress heartbeat.
const logEveryN = 1_000_000

// Line is a raw input line with its 1-based line number. The trailing
// newline (and a '\r' before it) is removed.
type Line struct {
	No   int
	Text string
}

// LineReader yields lines from r in order and fingerprints every byte it
// reads with xxh3, so the run can be tied to the exact input it consumed.
type LineReader struct {
	br   *bufio.Reader
	h    *xxh3.Hasher
	no   int
	done bool
}

// NewLineReader wraps r. r is read sequentially and never rewound.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		br: bufio.NewReaderSize(r, readBufSize),
		h:  xxh3.New(),
	}
}

// Next returns the next line, or io.EOF once the input is exhausted. A final
// line without a trailing newline is still returned. A BOM on the first line
// is dropped.
func (lr *LineReader) Next() (Line, error) {
	if lr.done {
		return Line{}, io.EOF
	}

	s, err := lr.br.ReadString('\n')
	if len(s) > 0 {
		_, _ = lr.h.WriteString(s)
	}
	if err != nil {
		if err != io.EOF {
			return Line{}, err
		}
		lr.done = true
		if len(s) == 0 {
			return Line{}, io.EOF
		}
	}

	lr.no++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	if lr.no == 1 {
		s = StripBOM(s)
	}
	return Line{No: lr.no, Text: s}, nil
}

// Lines is the number of lines returned so far.
func (lr *LineReader) Lines() int { return lr.no }

// Checksum is the xxh3 hash of all bytes consumed so far.
func (lr *LineReader) Checksum() uint64 { return lr.h.Sum64() }

// StreamLines sends every line of lr to out in arrival order and returns nil
// at EOF. It stops early with ctx.Err() on cancellation. The caller owns out
// and closes it after StreamLines returns.
func StreamLines(ctx context.Context, lr *LineReader, out chan<- Line) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ln, err := lr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case out <- ln:
			if ln.No%logEveryN == 0 {
				log.Printf("reader: line=%d", ln.No)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
