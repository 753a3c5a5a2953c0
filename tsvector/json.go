package tsvector

import (
	j "github.com/goccy/go-json"
)

// jsonLexeme is the JSON rendition of one lexeme.
type jsonLexeme struct {
	Text      string         `json:"text"`
	Positions []jsonPosition `json:"positions,omitempty"`
}

type jsonPosition struct {
	Pos    int    `json:"pos"`
	Weight string `json:"weight,omitempty"`
}

// MarshalJSON renders the vector as an array of lexeme objects in canonical
// order. As in the text form, the default weight D is omitted, and so is an
// empty position list.
func (v Vector) MarshalJSON() ([]byte, error) {
	out := make([]jsonLexeme, len(v.lexemes))
	for i, l := range v.lexemes {
		jl := jsonLexeme{Text: l.text}
		if n := len(l.positions); n > 0 {
			jl.Positions = make([]jsonPosition, n)
			for k, p := range l.positions {
				jp := jsonPosition{Pos: p.Pos()}
				if w := p.Weight(); w != WeightD {
					jp.Weight = w.String()
				}
				jl.Positions[k] = jp
			}
		}
		out[i] = jl
	}
	return j.Marshal(out)
}

// UnmarshalJSON accepts the MarshalJSON shape. A missing weight means D. The
// input need not be canonical; it is normalized exactly like Parse output.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var in []jsonLexeme
	if err := j.Unmarshal(data, &in); err != nil {
		return err
	}
	ls := make([]Lexeme, 0, len(in))
	for _, jl := range in {
		var ps []Position
		for _, jp := range jl.Positions {
			w := WeightD
			if jp.Weight != "" {
				var err error
				if w, err = ParseWeight(jp.Weight); err != nil {
					return err
				}
			}
			entry, err := NewPosition(jp.Pos, w)
			if err != nil {
				return err
			}
			ps = append(ps, entry)
		}
		ls = append(ls, Lexeme{text: jl.Text, positions: ps})
	}
	*v = Vector{lexemes: normalize(ls)}
	return nil
}
