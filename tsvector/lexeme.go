package tsvector

import (
	"fmt"
	"strings"
)

// Lexeme is one entry of a Vector: a text token plus an optional ordered
// list of weighted positions recording where the token occurred in the
// source document.
type Lexeme struct {
	text      string
	positions []Position
}

// NewLexeme returns a Lexeme without positions.
func NewLexeme(text string) Lexeme {
	return Lexeme{text: text}
}

// NewLexemeWithPositions returns a Lexeme carrying the given positions. The
// slice is copied, so the caller may keep mutating it. Unordered or
// duplicated positions are tolerated here; they canonicalize when the Lexeme
// enters a Vector.
func NewLexemeWithPositions(text string, positions []Position) Lexeme {
	if len(positions) == 0 {
		return Lexeme{text: text}
	}
	ps := make([]Position, len(positions))
	copy(ps, positions)
	return Lexeme{text: text, positions: ps}
}

// Text returns the lexeme's token.
func (l Lexeme) Text() string { return l.text }

// Count returns the number of positions attached to the lexeme.
func (l Lexeme) Count() int { return len(l.positions) }

// At returns the i-th position.
func (l Lexeme) At(i int) (Position, error) {
	if i < 0 || i >= len(l.positions) {
		return Position{}, fmt.Errorf("%w: position %d of %d", ErrOutOfRange, i, len(l.positions))
	}
	return l.positions[i], nil
}

// Positions returns a copy of the position list, nil when there is none.
func (l Lexeme) Positions() []Position {
	if len(l.positions) == 0 {
		return nil
	}
	ps := make([]Position, len(l.positions))
	copy(ps, l.positions)
	return ps
}

// String renders the lexeme in tsvector text form: the token single-quoted
// with backslashes and quotes escaped, then a comma-joined position list
// after a colon when positions exist.
func (l Lexeme) String() string {
	var sb strings.Builder
	appendQuoted(&sb, l.text)
	for i, p := range l.positions {
		if i == 0 {
			sb.WriteByte(':')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

// appendQuoted writes text wrapped in single quotes, doubling every quote
// and backslash. Both escapes stay ASCII, so a byte walk suffices.
func appendQuoted(sb *strings.Builder, text string) {
	sb.WriteByte('\'')
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\'':
			sb.WriteString("''")
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('\'')
}
