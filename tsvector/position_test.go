package tsvector

import (
	"errors"
	"testing"
)

func TestNewPosition_ClampsLargeValues(t *testing.T) {
	p, err := NewPosition(20000, WeightD)
	if err != nil {
		t.Fatalf("NewPosition(20000) failed: %v", err)
	}
	if got, want := p.Pos(), MaxPosition; got != want {
		t.Fatalf("Pos() = %d, want %d", got, want)
	}

	p, err = NewPosition(MaxPosition, WeightB)
	if err != nil {
		t.Fatalf("NewPosition(MaxPosition) failed: %v", err)
	}
	if got, want := p.Pos(), MaxPosition; got != want {
		t.Fatalf("Pos() = %d, want %d", got, want)
	}
	if got, want := p.Weight(), WeightB; got != want {
		t.Fatalf("Weight() = %v, want %v", got, want)
	}
}

func TestNewPosition_RejectsNonPositive(t *testing.T) {
	if _, err := NewPosition(0, WeightD); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("NewPosition(0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewPosition(-3, WeightD); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("NewPosition(-3) error = %v, want ErrInvalidArgument", err)
	}
}

func TestNewPosition_RejectsUndefinedWeight(t *testing.T) {
	if _, err := NewPosition(1, Weight(4)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("NewPosition(1, Weight(4)) error = %v, want ErrInvalidArgument", err)
	}
}

func TestPosition_String(t *testing.T) {
	cases := []struct {
		pos  int
		w    Weight
		want string
	}{
		{12, WeightD, "12"},
		{3, WeightB, "3B"},
		{1, WeightA, "1A"},
		{16383, WeightC, "16383C"},
	}
	for _, tc := range cases {
		p, err := NewPosition(tc.pos, tc.w)
		if err != nil {
			t.Fatalf("NewPosition(%d, %v) failed: %v", tc.pos, tc.w, err)
		}
		if got := p.String(); got != tc.want {
			t.Fatalf("Position(%d, %v).String() = %q, want %q", tc.pos, tc.w, got, tc.want)
		}
	}
}

func TestWeight_Ordering(t *testing.T) {
	// A plain > must rank importance: A over B over C over D.
	if !(WeightA > WeightB && WeightB > WeightC && WeightC > WeightD) {
		t.Fatalf("weights are not ordered A > B > C > D: A=%d B=%d C=%d D=%d",
			WeightA, WeightB, WeightC, WeightD)
	}
}

func TestParseWeight(t *testing.T) {
	cases := []struct {
		in   string
		want Weight
	}{
		{"A", WeightA}, {"a", WeightA},
		{"B", WeightB}, {"b", WeightB},
		{"C", WeightC}, {"c", WeightC},
		{"D", WeightD}, {"d", WeightD},
		// "*" is an input-compat synonym for A; it is never rendered back.
		{"*", WeightA},
	}
	for _, tc := range cases {
		got, err := ParseWeight(tc.in)
		if err != nil {
			t.Fatalf("ParseWeight(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseWeight(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"", "X", "AB", "1"} {
		if _, err := ParseWeight(in); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ParseWeight(%q) error = %v, want ErrInvalidArgument", in, err)
		}
	}
}
