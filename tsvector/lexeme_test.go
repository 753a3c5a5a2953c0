package tsvector

import (
	"errors"
	"testing"
)

func mustPosition(t *testing.T, pos int, w Weight) Position {
	t.Helper()
	p, err := NewPosition(pos, w)
	if err != nil {
		t.Fatalf("NewPosition(%d, %v) failed: %v", pos, w, err)
	}
	return p
}

func TestLexeme_At(t *testing.T) {
	l := NewLexemeWithPositions("cat", []Position{
		mustPosition(t, 1, WeightD),
		mustPosition(t, 2, WeightB),
	})
	if got, want := l.Count(), 2; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
	p, err := l.At(1)
	if err != nil {
		t.Fatalf("At(1) failed: %v", err)
	}
	if p.Pos() != 2 || p.Weight() != WeightB {
		t.Fatalf("At(1) = (%d, %v), want (2, B)", p.Pos(), p.Weight())
	}

	if _, err := l.At(2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("At(2) error = %v, want ErrOutOfRange", err)
	}
	if _, err := l.At(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("At(-1) error = %v, want ErrOutOfRange", err)
	}
}

func TestNewLexemeWithPositions_CopiesInput(t *testing.T) {
	ps := []Position{mustPosition(t, 1, WeightD)}
	l := NewLexemeWithPositions("cat", ps)

	// Mutating the caller's slice must not leak into the lexeme.
	ps[0] = mustPosition(t, 9, WeightA)
	got, err := l.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if got.Pos() != 1 || got.Weight() != WeightD {
		t.Fatalf("At(0) = (%d, %v), want (1, D)", got.Pos(), got.Weight())
	}
}

func TestLexeme_PositionsReturnsCopy(t *testing.T) {
	l := NewLexemeWithPositions("cat", []Position{mustPosition(t, 1, WeightD)})
	out := l.Positions()
	out[0] = mustPosition(t, 9, WeightA)

	got, err := l.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if got.Pos() != 1 {
		t.Fatalf("At(0).Pos() = %d, want 1", got.Pos())
	}

	if NewLexeme("dog").Positions() != nil {
		t.Fatalf("Positions() on a position-free lexeme should be nil")
	}
}

func TestLexeme_String(t *testing.T) {
	cases := []struct {
		text string
		ps   []Position
		want string
	}{
		{"cat", nil, "'cat'"},
		{"cat", []Position{mustPosition(t, 1, WeightD)}, "'cat':1"},
		{"cat", []Position{mustPosition(t, 1, WeightD), mustPosition(t, 2, WeightB)}, "'cat':1,2B"},
		{`a\b`, nil, `'a\\b'`},
		{"a'b", nil, "'a''b'"},
		{"", nil, "''"},
	}
	for _, tc := range cases {
		l := NewLexemeWithPositions(tc.text, tc.ps)
		if got := l.String(); got != tc.want {
			t.Fatalf("Lexeme(%q).String() = %q, want %q", tc.text, got, tc.want)
		}
	}
}
