package csv

import (
	"fmt"
	"strings"

	"csvreduce/internal/decimal"
)

// Row is one parsed data line. Fields is indexed by column: Fields[0] is
// left zero for the name column so Fields[i] always holds column i.
type Row struct {
	Line   int
	Name   string
	Raw    string
	Fields []decimal.Decimal
}

// Rank is the value of the last column, the sole selection key.
func (r Row) Rank() decimal.Decimal {
	if len(r.Fields) == 0 {
		return decimal.Zero()
	}
	return r.Fields[len(r.Fields)-1]
}

// Width is the number of comma-separated columns, name included.
func (r Row) Width() int { return len(r.Fields) }

// MalformedRowError identifies a data line that cannot be used. Field is the
// offending column index, or -1 when the line as a whole is wrong.
type MalformedRowError struct {
	Line   int
	Field  int
	Raw    string
	Reason string
	Err    error
}

func (e *MalformedRowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", e.Line)
	if e.Field >= 0 {
		fmt.Fprintf(&b, " field %d", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	fmt.Fprintf(&b, " (raw=%q)", e.Raw)
	return b.String()
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// SplitFields splits on ',' with no quoting or escaping.
func SplitFields(line string) []string {
	return strings.Split(line, ",")
}

// ParseRow splits line into a name and decimal fields. lineNo is only used
// for error context.
func ParseRow(line string, lineNo int) (Row, error) {
	parts := SplitFields(line)
	if len(parts) < 2 {
		return Row{}, &MalformedRowError{
			Line:   lineNo,
			Field:  -1,
			Raw:    line,
			Reason: fmt.Sprintf("need at least 2 fields, got %d", len(parts)),
		}
	}

	fields := make([]decimal.Decimal, len(parts))
	for i := 1; i < len(parts); i++ {
		d, err := decimal.Parse(parts[i])
		if err != nil {
			return Row{}, &MalformedRowError{
				Line:   lineNo,
				Field:  i,
				Raw:    line,
				Reason: "bad numeral",
				Err:    err,
			}
		}
		fields[i] = d
	}

	return Row{
		Line:   lineNo,
		Name:   parts[0],
		Raw:    line,
		Fields: fields,
	}, nil
}
