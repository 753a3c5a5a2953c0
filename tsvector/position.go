package tsvector

import (
	"fmt"
	"strconv"
)

// Weight ranks how prominent one occurrence of a lexeme is. PostgreSQL
// defines four labels ordered A > B > C > D, with D the default; D is never
// rendered in the text form.
type Weight uint8

// Weights are declared in ascending order of importance so that a plain >
// comparison picks the more important of two.
const (
	WeightD Weight = iota
	WeightC
	WeightB
	WeightA
)

// MaxPosition is the largest document position a tsvector can record.
// Larger positions are silently clamped on construction, as in PostgreSQL.
const MaxPosition = 1<<14 - 1

// String returns the weight's upper-case letter.
func (w Weight) String() string {
	switch w {
	case WeightA:
		return "A"
	case WeightB:
		return "B"
	case WeightC:
		return "C"
	case WeightD:
		return "D"
	}
	return fmt.Sprintf("Weight(%d)", uint8(w))
}

// ParseWeight converts a weight letter (case-insensitive A, B, C or D) into
// a Weight. The historical "*" synonym for A is accepted on input.
func ParseWeight(s string) (Weight, error) {
	if len(s) == 1 {
		if w, ok := weightFromLetter(s[0]); ok {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: weight %q", ErrInvalidArgument, s)
}

func weightFromLetter(c byte) (Weight, bool) {
	switch c {
	case 'A', 'a', '*':
		return WeightA, true
	case 'B', 'b':
		return WeightB, true
	case 'C', 'c':
		return WeightC, true
	case 'D', 'd':
		return WeightD, true
	}
	return 0, false
}

// Position records one occurrence of a lexeme: a 1-based document position
// plus a Weight, packed into 16 bits (high 2 bits weight, low 14 bits
// position). The packed form stays internal; read it through Pos and Weight.
type Position struct {
	packed uint16
}

const weightShift = 14

// NewPosition validates and packs a position. pos must be at least 1 and is
// clamped to MaxPosition; w must be one of the four defined weights.
func NewPosition(pos int, w Weight) (Position, error) {
	if pos <= 0 {
		return Position{}, fmt.Errorf("%w: position %d, want >= 1", ErrInvalidArgument, pos)
	}
	if w > WeightA {
		return Position{}, fmt.Errorf("%w: weight %d outside A..D", ErrInvalidArgument, uint8(w))
	}
	return packPosition(pos, w), nil
}

// packPosition packs without validating; callers guarantee pos >= 1.
func packPosition(pos int, w Weight) Position {
	if pos > MaxPosition {
		pos = MaxPosition
	}
	return Position{packed: uint16(w)<<weightShift | uint16(pos)}
}

// Pos returns the 1-based document position.
func (p Position) Pos() int { return int(p.packed & MaxPosition) }

// Weight returns the occurrence weight.
func (p Position) Weight() Weight { return Weight(p.packed >> weightShift) }

// String renders the position the way the tsvector text form does: the bare
// number for the default weight, the number followed by the weight letter
// otherwise.
func (p Position) String() string {
	if w := p.Weight(); w != WeightD {
		return strconv.Itoa(p.Pos()) + w.String()
	}
	return strconv.Itoa(p.Pos())
}
