// Package decimal provides the exact base-10 number used for every numeric
// cell: parsing, addition, ordering and fixed-scale division.
//
// Values are immutable. Every operation allocates its result, so a Decimal
// can be shared between the totals accumulator, the top-K selector and the
// rescaler without copying.
package decimal

import (
	"errors"
	"fmt"

	"gopkg.in/inf.v0"
)

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = errors.New("decimal: division by zero")

// ParseError reports text that is not a decimal numeral.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decimal: invalid numeral %q", e.Text)
}

// Decimal is an arbitrary-precision signed decimal. The zero value is 0.
type Decimal struct {
	v *inf.Dec
}

// Zero returns the decimal 0.
func Zero() Decimal { return Decimal{} }

// FromInt returns n as a Decimal with scale 0.
func FromInt(n int64) Decimal { return Decimal{v: inf.NewDec(n, 0)} }

// Parse reads an optional sign, digits and at most one decimal point. At
// least one digit is required; exponents and surrounding spaces are rejected.
func Parse(text string) (Decimal, error) {
	d, ok := new(inf.Dec).SetString(text)
	if !ok {
		return Decimal{}, &ParseError{Text: text}
	}
	return Decimal{v: d}, nil
}

// MustParse is Parse for constants and tests; it panics on invalid input.
func MustParse(text string) Decimal {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

func (a Decimal) dec() *inf.Dec {
	if a.v == nil {
		return new(inf.Dec)
	}
	return a.v
}

// Add returns a+b without loss of precision.
func (a Decimal) Add(b Decimal) Decimal {
	return Decimal{v: new(inf.Dec).Add(a.dec(), b.dec())}
}

// Cmp compares numeric values and returns -1, 0 or +1. Scale does not
// matter: 1.0 and 1 compare equal.
func (a Decimal) Cmp(b Decimal) int {
	return a.dec().Cmp(b.dec())
}

// Sign returns -1, 0 or +1.
func (a Decimal) Sign() int { return a.dec().Sign() }

// IsZero reports whether a == 0.
func (a Decimal) IsZero() bool { return a.Sign() == 0 }

// Div returns a/b rounded to scale fractional digits, halves rounded away
// from zero (2.5 → 3, -2.5 → -3).
func (a Decimal) Div(b Decimal, scale int32) (Decimal, error) {
	if b.IsZero() {
		return Decimal{}, ErrDivisionByZero
	}
	q := new(inf.Dec).QuoRound(a.dec(), b.dec(), inf.Scale(scale), inf.RoundHalfUp)
	return Decimal{v: q}, nil
}

// String renders plain digits with the scale the value carries, e.g. "30",
// "-0.5", "2.50". Exponent notation is never used.
func (a Decimal) String() string {
	return a.dec().String()
}
