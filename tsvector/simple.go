package tsvector

import (
	"strings"
	"unicode"
)

// Simple builds a Vector from a plain document the way PostgreSQL's
// to_tsvector('simple', doc) does: tokens are maximal runs of letters and
// digits, lowercased and numbered 1..n in document order with the default
// weight. There is no stemming, no stop-word removal and no locale-aware
// folding beyond Unicode lowercasing.
func Simple(doc string) Vector {
	words := strings.FieldsFunc(doc, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return Vector{}
	}
	ls := make([]Lexeme, len(words))
	for i, w := range words {
		pos := i + 1
		if pos > MaxPosition {
			pos = MaxPosition
		}
		ls[i] = Lexeme{
			text:      strings.ToLower(w),
			positions: []Position{packPosition(pos, WeightD)},
		}
	}
	return newOwned(ls)
}
