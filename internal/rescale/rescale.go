// Package rescale divides the numeric cells of an output line by a fixed
// divisor, rounding each result to an integer.
package rescale

import (
	"fmt"
	"strings"

	"csvreduce/internal/decimal"
	"csvreduce/internal/parser/csv"
)

// Rescale returns line with every field after the first replaced by
// field/divisor rounded half away from zero to 0 decimals. The name field
// is never touched. A nil divisor returns line unchanged.
func Rescale(line string, divisor *decimal.Decimal) (string, error) {
	if divisor == nil {
		return line, nil
	}

	parts := csv.SplitFields(line)
	var b strings.Builder
	b.Grow(len(line))
	b.WriteString(parts[0])

	for i := 1; i < len(parts); i++ {
		v, err := decimal.Parse(parts[i])
		if err != nil {
			return "", fmt.Errorf("rescale field %d: %w", i, err)
		}
		q, err := v.Div(*divisor, 0)
		if err != nil {
			return "", fmt.Errorf("rescale field %d: %w", i, err)
		}
		b.WriteByte(',')
		b.WriteString(q.String())
	}
	return b.String(), nil
}
