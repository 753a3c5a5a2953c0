package tsvector

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse converts tsvector text into its canonical Vector. The accepted
// grammar is PostgreSQL's: whitespace-separated lexemes, each either a bare
// word or a single-quoted string ('' doubles a quote, backslash escapes the
// next character in both forms), optionally followed by ":pos,pos,..." where
// each pos is a digit run plus an optional weight letter (A, B, C or D,
// case-insensitive; "*" reads as A). The result is normalized: lexemes
// sorted and merged, position lists deduplicated.
//
// Structural violations surface as ErrSyntax with a byte offset; a position
// of zero surfaces as ErrInvalidArgument. The empty string parses to the
// empty vector.
func Parse(s string) (Vector, error) {
	p := parser{input: s}
	raw, err := p.run()
	if err != nil {
		return Vector{}, err
	}
	return newOwned(raw), nil
}

// parser is the character-level state machine behind Parse. All structural
// characters are ASCII, so it walks bytes and decodes runes only where
// Unicode matters (whitespace tests and escaped characters). Token text is
// accumulated as verbatim byte segments, leaving non-UTF-8 input intact.
type parser struct {
	input string
	pos   int
	sb    strings.Builder
	raw   []Lexeme
}

// run loops over the wait-lexeme state: skip whitespace, dispatch on the
// first character to the quoted or unquoted scanner, then collect position
// info when the token ended at a colon.
func (p *parser) run() ([]Lexeme, error) {
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return p.raw, nil
		}
		var (
			text   string
			hasPos bool
			err    error
		)
		if p.input[p.pos] == '\'' {
			p.pos++
			text, hasPos, err = p.scanQuoted()
		} else {
			text, hasPos, err = p.scanWord()
		}
		if err != nil {
			return nil, err
		}
		if !hasPos {
			p.raw = append(p.raw, Lexeme{text: text})
			continue
		}
		ps, err := p.scanPositions()
		if err != nil {
			return nil, err
		}
		p.raw = append(p.raw, Lexeme{text: text, positions: ps})
	}
}

// scanWord accumulates an unquoted token. It ends at whitespace or end of
// input, or at a colon, which it consumes and reports so the caller parses
// position info. A colon as the very first character is literal text, as is
// any escaped character.
func (p *parser) scanWord() (string, bool, error) {
	p.sb.Reset()
	start := p.pos
	seg := p.pos
	for p.pos < len(p.input) {
		r, size := p.rune()
		switch {
		case r == '\\':
			p.sb.WriteString(p.input[seg:p.pos])
			p.pos += size
			if p.pos >= len(p.input) {
				return "", false, p.syntaxError("dangling escape")
			}
			seg = p.pos
			_, esc := p.rune()
			p.pos += esc
		case r == ':' && p.pos > start:
			p.sb.WriteString(p.input[seg:p.pos])
			p.pos += size
			return p.sb.String(), true, nil
		case unicode.IsSpace(r):
			p.sb.WriteString(p.input[seg:p.pos])
			return p.sb.String(), false, nil
		default:
			p.pos += size
		}
	}
	p.sb.WriteString(p.input[seg:p.pos])
	return p.sb.String(), false, nil
}

// scanQuoted accumulates a quoted token; the cursor starts after the opening
// quote. A doubled quote is a literal quote, a backslash escapes the next
// character, and the closing quote must be followed by position info,
// whitespace or end of input.
func (p *parser) scanQuoted() (string, bool, error) {
	p.sb.Reset()
	seg := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\'':
			p.sb.WriteString(p.input[seg:p.pos])
			p.pos++
			if p.pos < len(p.input) && p.input[p.pos] == '\'' {
				p.sb.WriteByte('\'')
				p.pos++
				seg = p.pos
				continue
			}
			return p.endQuoted()
		case '\\':
			p.sb.WriteString(p.input[seg:p.pos])
			p.pos++
			if p.pos >= len(p.input) {
				return "", false, p.syntaxError("dangling escape")
			}
			seg = p.pos
			_, size := p.rune()
			p.pos += size
		default:
			p.pos++
		}
	}
	return "", false, p.syntaxError("unterminated quoted lexeme")
}

// endQuoted decides what follows a closing quote: position info, a token
// boundary, or a syntax error.
func (p *parser) endQuoted() (string, bool, error) {
	text := p.sb.String()
	if p.pos >= len(p.input) {
		return text, false, nil
	}
	r, size := p.rune()
	switch {
	case r == ':':
		p.pos += size
		return text, true, nil
	case unicode.IsSpace(r):
		return text, false, nil
	}
	return "", false, p.syntaxError("unexpected %q after quoted lexeme", r)
}

// scanPositions parses the comma-separated position entries after a colon,
// leaving the cursor on the whitespace (or end of input) that closes the
// lexeme.
func (p *parser) scanPositions() ([]Position, error) {
	var out []Position
	for {
		n, err := p.scanInt()
		if err != nil {
			return nil, err
		}
		w := WeightD
		if p.pos < len(p.input) {
			if ww, ok := weightFromLetter(p.input[p.pos]); ok {
				w = ww
				p.pos++
			}
		}
		entry, err := NewPosition(n, w)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
		if p.pos >= len(p.input) {
			return out, nil
		}
		r, size := p.rune()
		switch {
		case r == ',':
			p.pos += size
		case unicode.IsSpace(r):
			return out, nil
		default:
			return nil, p.syntaxError("unexpected %q in position list", r)
		}
	}
}

// scanInt reads a run of ASCII digits. Values beyond the position range are
// pinned just above MaxPosition so NewPosition clamps them without the
// accumulator overflowing.
func (p *parser) scanInt() (int, error) {
	start := p.pos
	v := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c < '0' || c > '9' {
			break
		}
		if v <= MaxPosition {
			v = v*10 + int(c-'0')
		}
		p.pos++
	}
	if p.pos == start {
		return 0, p.syntaxError("expected digits in position list")
	}
	return v, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		r, size := p.rune()
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

// rune decodes the rune at the cursor without consuming it; the cursor must
// not be at end of input.
func (p *parser) rune() (rune, int) {
	if c := p.input[p.pos]; c < utf8.RuneSelf {
		return rune(c), 1
	}
	return utf8.DecodeRuneInString(p.input[p.pos:])
}

// syntaxError builds an ErrSyntax carrying the current byte offset.
func (p *parser) syntaxError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), p.pos)
}
