package tsvector

import (
	"fmt"
	"strings"
)

// Vector is a text-search document vector: the canonical form of a
// document's lexemes, sorted bytewise ascending with unique texts, each
// carrying an ascending, duplicate-free position list. The zero value is the
// empty vector. Vectors are immutable once constructed and therefore safe to
// share across goroutines; operations return new values.
type Vector struct {
	lexemes []Lexeme
}

// New builds a Vector from arbitrary lexemes. Input order, duplicate texts
// and unordered or duplicated positions are all tolerated; the result is
// canonical. Caller-supplied slices are copied, never retained.
func New(lexemes []Lexeme) Vector {
	if len(lexemes) == 0 {
		return Vector{}
	}
	ls := make([]Lexeme, len(lexemes))
	for i, l := range lexemes {
		ls[i] = Lexeme{text: l.text, positions: l.Positions()}
	}
	return Vector{lexemes: normalize(ls)}
}

// newOwned normalizes without the defensive copy; the lexeme list and every
// position list in it must be exclusively owned by the caller.
func newOwned(lexemes []Lexeme) Vector {
	return Vector{lexemes: normalize(lexemes)}
}

// Len returns the number of distinct lexemes.
func (v Vector) Len() int { return len(v.lexemes) }

// At returns the i-th lexeme in canonical order.
func (v Vector) At(i int) (Lexeme, error) {
	if i < 0 || i >= len(v.lexemes) {
		return Lexeme{}, fmt.Errorf("%w: lexeme %d of %d", ErrOutOfRange, i, len(v.lexemes))
	}
	return v.lexemes[i], nil
}

// Lexemes returns the lexemes in canonical order as a fresh slice.
func (v Vector) Lexemes() []Lexeme {
	if len(v.lexemes) == 0 {
		return nil
	}
	out := make([]Lexeme, len(v.lexemes))
	copy(out, v.lexemes)
	return out
}

// String renders the canonical text form: lexeme renderings joined by single
// spaces. The empty vector renders as "". The output parses back to an equal
// Vector.
func (v Vector) String() string {
	if len(v.lexemes) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, l := range v.lexemes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.String())
	}
	return sb.String()
}

// Equal reports whether two vectors carry the same lexemes with the same
// position lists.
func (v Vector) Equal(other Vector) bool {
	if len(v.lexemes) != len(other.lexemes) {
		return false
	}
	for i, l := range v.lexemes {
		o := other.lexemes[i]
		if l.text != o.text || len(l.positions) != len(o.positions) {
			return false
		}
		for j, p := range l.positions {
			if p != o.positions[j] {
				return false
			}
		}
	}
	return true
}

// Strip returns a copy of the vector with all position information removed,
// like PostgreSQL's strip().
func (v Vector) Strip() Vector {
	if len(v.lexemes) == 0 {
		return Vector{}
	}
	ls := make([]Lexeme, len(v.lexemes))
	for i, l := range v.lexemes {
		ls[i] = Lexeme{text: l.text}
	}
	return Vector{lexemes: ls}
}

// SetWeight returns a copy of the vector with every position relabelled w,
// like PostgreSQL's setweight(). Lexemes without positions are unaffected.
func (v Vector) SetWeight(w Weight) (Vector, error) {
	if w > WeightA {
		return Vector{}, fmt.Errorf("%w: weight %d outside A..D", ErrInvalidArgument, uint8(w))
	}
	if len(v.lexemes) == 0 {
		return Vector{}, nil
	}
	ls := make([]Lexeme, len(v.lexemes))
	for i, l := range v.lexemes {
		if len(l.positions) == 0 {
			ls[i] = Lexeme{text: l.text}
			continue
		}
		ps := make([]Position, len(l.positions))
		for j, p := range l.positions {
			ps[j] = packPosition(p.Pos(), w)
		}
		ls[i] = Lexeme{text: l.text, positions: ps}
	}
	return Vector{lexemes: ls}, nil
}

// Concat merges two vectors the way the tsvector || operator does: the
// right operand's positions are shifted by the left operand's maximum
// position, so position order still reflects concatenated document order.
// Shifted positions clamp at MaxPosition.
func (v Vector) Concat(other Vector) Vector {
	shift := v.maxPos()
	ls := make([]Lexeme, 0, len(v.lexemes)+len(other.lexemes))
	for _, l := range v.lexemes {
		ls = append(ls, Lexeme{text: l.text, positions: l.Positions()})
	}
	for _, l := range other.lexemes {
		ps := l.Positions()
		for i, p := range ps {
			ps[i] = packPosition(p.Pos()+shift, p.Weight())
		}
		ls = append(ls, Lexeme{text: l.text, positions: ps})
	}
	return newOwned(ls)
}

// maxPos returns the largest position in the vector, 0 when no lexeme
// carries positions.
func (v Vector) maxPos() int {
	max := 0
	for _, l := range v.lexemes {
		for _, p := range l.positions {
			if p.Pos() > max {
				max = p.Pos()
			}
		}
	}
	return max
}
