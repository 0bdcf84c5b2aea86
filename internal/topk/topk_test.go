package topk

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"csvreduce/internal/parser/csv"
)

func row(t testing.TB, name, rank string) csv.Row {
	t.Helper()
	r, err := csv.ParseRow(name+","+rank, 0)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	return r
}

func names(rows []csv.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestSelector_Basic(t *testing.T) {
	t.Parallel()

	s := New(2, KeepFirst)
	s.Offer(row(t, "x", "100"))
	s.Offer(row(t, "y", "200"))
	s.Offer(row(t, "z", "50"))

	got := names(s.Drain())
	if fmt.Sprint(got) != "[y x]" {
		t.Fatalf("Drain=%v; want [y x]", got)
	}
}

func TestSelector_Outcomes(t *testing.T) {
	t.Parallel()

	s := New(1, KeepFirst)
	if o := s.Offer(row(t, "a", "1")); o != Inserted {
		t.Fatalf("first offer=%v", o)
	}
	if o := s.Offer(row(t, "b", "1")); o != Discarded {
		t.Fatalf("equal offer=%v; want Discarded", o)
	}
	if o := s.Offer(row(t, "c", "0.5")); o != Discarded {
		t.Fatalf("lower offer=%v", o)
	}
	if o := s.Offer(row(t, "d", "1.0001")); o != Replaced {
		t.Fatalf("higher offer=%v", o)
	}
	if got := names(s.Drain()); fmt.Sprint(got) != "[d]" {
		t.Fatalf("Drain=%v", got)
	}
}

func TestSelector_TiesEarlierWins(t *testing.T) {
	t.Parallel()

	s := New(2, KeepFirst)
	for _, n := range []string{"a", "b", "c", "d"} {
		s.Offer(row(t, n, "7"))
	}
	if got := names(s.Drain()); fmt.Sprint(got) != "[a b]" {
		t.Fatalf("Drain=%v; want [a b]", got)
	}

	// A higher row evicts the latest of the tied minimums.
	s = New(2, KeepFirst)
	s.Offer(row(t, "a", "7"))
	s.Offer(row(t, "b", "7"))
	s.Offer(row(t, "c", "9"))
	if got := names(s.Drain()); fmt.Sprint(got) != "[c a]" {
		t.Fatalf("Drain=%v; want [c a]", got)
	}
}

func TestSelector_KeepLast(t *testing.T) {
	t.Parallel()

	s := New(2, KeepLast)
	for _, n := range []string{"a", "b", "c", "d"} {
		s.Offer(row(t, n, "7"))
	}
	if got := names(s.Drain()); fmt.Sprint(got) != "[d c]" {
		t.Fatalf("Drain=%v; want [d c]", got)
	}
}

func TestSelector_ZeroCapacity(t *testing.T) {
	t.Parallel()

	for _, k := range []int{0, -3} {
		s := New(k, KeepFirst)
		for i := 0; i < 10; i++ {
			if o := s.Offer(row(t, "r", fmt.Sprint(i))); o != Discarded {
				t.Fatalf("k=%d offer=%v", k, o)
			}
		}
		if s.Len() != 0 || len(s.Drain()) != 0 {
			t.Fatalf("k=%d: selector not empty", k)
		}
	}
}

func TestSelector_DrainConsumes(t *testing.T) {
	t.Parallel()

	s := New(3, KeepFirst)
	s.Offer(row(t, "a", "1"))
	s.Offer(row(t, "b", "2"))
	if len(s.Drain()) != 2 {
		t.Fatal("first drain")
	}
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("second drain=%v", names(got))
	}
	if s.Len() != 0 {
		t.Fatalf("Len=%d", s.Len())
	}
}

// TestSelector_MatchesSort checks the streaming selector against a full
// stable sort for random inputs, including many duplicate ranks.
func TestSelector_MatchesSort(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(60)
		k := rng.Intn(12)

		rows := make([]csv.Row, n)
		for i := range rows {
			rank := fmt.Sprintf("%d.%d", rng.Intn(10)-5, rng.Intn(3))
			rows[i] = row(t, fmt.Sprintf("r%d", i), rank)
		}

		s := New(k, KeepFirst)
		for _, r := range rows {
			s.Offer(r)
			if s.Len() > k {
				t.Fatalf("size %d exceeds k=%d", s.Len(), k)
			}
		}
		got := names(s.Drain())

		want := append([]csv.Row(nil), rows...)
		sort.SliceStable(want, func(i, j int) bool {
			return want[i].Rank().Cmp(want[j].Rank()) > 0
		})
		if len(want) > k {
			want = want[:k]
		}

		if fmt.Sprint(got) != fmt.Sprint(names(want)) {
			t.Fatalf("round %d (n=%d k=%d):\n got %v\nwant %v", round, n, k, got, names(want))
		}
	}
}

func TestParseTiePolicy(t *testing.T) {
	t.Parallel()

	cases := map[string]TiePolicy{"": KeepFirst, "keep-first": KeepFirst, "KEEP-LAST": KeepLast}
	for in, want := range cases {
		got, err := ParseTiePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseTiePolicy(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseTiePolicy("random"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func BenchmarkSelectorOffer(b *testing.B) {
	rows := make([]csv.Row, 4096)
	rng := rand.New(rand.NewSource(7))
	for i := range rows {
		rows[i] = row(b, "r", fmt.Sprint(rng.Int63()))
	}
	s := New(25, KeepFirst)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Offer(rows[i%len(rows)])
	}
}
