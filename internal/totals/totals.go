// Package totals keeps running per-column sums across all data rows.
package totals

import (
	"errors"
	"fmt"
	"strings"

	"csvreduce/internal/decimal"
	"csvreduce/internal/parser/csv"
)

// ErrWidthMismatch is returned when a row does not have the column count the
// accumulator was sized for.
var ErrWidthMismatch = errors.New("totals: row width does not match header")

// Accumulator holds one sum per column. Index 0 is the name column and is
// never summed.
type Accumulator struct {
	sums []decimal.Decimal
	rows int
}

// New sizes the accumulator from the header column count. Every sum starts
// at zero.
func New(columnCount int) *Accumulator {
	if columnCount < 0 {
		columnCount = 0
	}
	return &Accumulator{sums: make([]decimal.Decimal, columnCount)}
}

// Columns is the column count given to New.
func (a *Accumulator) Columns() int { return len(a.sums) }

// Rows is the number of rows accumulated.
func (a *Accumulator) Rows() int { return a.rows }

// Accumulate adds row.Fields[i] to column i for every i ≥ 1.
func (a *Accumulator) Accumulate(row csv.Row) error {
	if row.Width() != len(a.sums) {
		return fmt.Errorf("%w: expected %d, got %d", ErrWidthMismatch, len(a.sums), row.Width())
	}
	for i := 1; i < len(a.sums); i++ {
		a.sums[i] = a.sums[i].Add(row.Fields[i])
	}
	a.rows++
	return nil
}

// Snapshot returns a copy of the sums, index 0 included.
func (a *Accumulator) Snapshot() []decimal.Decimal {
	out := make([]decimal.Decimal, len(a.sums))
	copy(out, a.sums)
	return out
}

// Row renders name followed by every column sum, comma separated.
func (a *Accumulator) Row(name string) string {
	var b strings.Builder
	b.WriteString(name)
	for i := 1; i < len(a.sums); i++ {
		b.WriteByte(',')
		b.WriteString(a.sums[i].String())
	}
	return b.String()
}
