package tsvector

import "sort"

// normalize canonicalizes a raw lexeme list in place: stable-sort by text
// (bytewise ascending), merge adjacent equal-text lexemes by concatenating
// their position lists, then canonicalize each surviving list. Lexemes
// without positions are neutral under the merge; positions of their
// duplicates survive. The caller must own ls and every position list in it.
func normalize(ls []Lexeme) []Lexeme {
	if len(ls) == 0 {
		return nil
	}
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].text < ls[j].text })
	out := ls[:1]
	for _, l := range ls[1:] {
		last := &out[len(out)-1]
		if l.text == last.text {
			if len(l.positions) > 0 {
				last.positions = append(last.positions, l.positions...)
			}
			continue
		}
		out = append(out, l)
	}
	for i := range out {
		out[i].positions = uniquePositions(out[i].positions)
	}
	return out
}

// uniquePositions canonicalizes one position list: ascending by document
// position, one entry per position, the higher weight winning among
// duplicates. Lists already strictly ascending pass through unchanged; the
// rest are cloned, stable-sorted by position and compacted.
func uniquePositions(ps []Position) []Position {
	if len(ps) <= 1 {
		return ps
	}
	if positionsAscending(ps) {
		return ps
	}
	sorted := make([]Position, len(ps))
	copy(sorted, ps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos() < sorted[j].Pos() })
	out := sorted[:1]
	for _, p := range sorted[1:] {
		last := &out[len(out)-1]
		if p.Pos() == last.Pos() {
			if p.Weight() > last.Weight() {
				*last = p
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

func positionsAscending(ps []Position) bool {
	for i := 1; i < len(ps); i++ {
		if ps[i-1].Pos() >= ps[i].Pos() {
			return false
		}
	}
	return true
}
