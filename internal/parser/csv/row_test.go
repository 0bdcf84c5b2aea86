package csv

import (
	"errors"
	"strings"
	"testing"

	"csvreduce/internal/decimal"
)

func TestParseRow(t *testing.T) {
	t.Parallel()

	r, err := ParseRow("x,10,100.5", 2)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if r.Name != "x" || r.Raw != "x,10,100.5" || r.Line != 2 {
		t.Fatalf("row=%+v", r)
	}
	if r.Width() != 3 {
		t.Fatalf("width=%d; want 3", r.Width())
	}
	if got := r.Fields[1].String(); got != "10" {
		t.Fatalf("Fields[1]=%s", got)
	}
	if r.Rank().Cmp(decimal.MustParse("100.5")) != 0 {
		t.Fatalf("Rank=%s; want 100.5", r.Rank())
	}
}

func TestParseRow_NameIsNotParsed(t *testing.T) {
	t.Parallel()

	r, err := ParseRow("12abc,1", 1)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if r.Name != "12abc" {
		t.Fatalf("name=%q", r.Name)
	}
}

func TestParseRow_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		line      string
		wantField int
		wantParse bool
	}{
		{name: "single_field", line: "lonely", wantField: -1},
		{name: "empty_line", line: "", wantField: -1},
		{name: "bad_numeral", line: "x,1,abc", wantField: 2, wantParse: true},
		{name: "empty_numeral", line: "x,,3", wantField: 1, wantParse: true},
		{name: "quoted_is_not_supported", line: `x,"1"`, wantField: 1, wantParse: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRow(tc.line, 7)
			var me *MalformedRowError
			if !errors.As(err, &me) {
				t.Fatalf("err=%v; want *MalformedRowError", err)
			}
			if me.Line != 7 || me.Field != tc.wantField || me.Raw != tc.line {
				t.Fatalf("got line=%d field=%d raw=%q", me.Line, me.Field, me.Raw)
			}
			var pe *decimal.ParseError
			if got := errors.As(err, &pe); got != tc.wantParse {
				t.Fatalf("errors.As(ParseError)=%v; want %v", got, tc.wantParse)
			}
			if !strings.Contains(err.Error(), "line 7") {
				t.Fatalf("error lacks line context: %v", err)
			}
		})
	}
}
