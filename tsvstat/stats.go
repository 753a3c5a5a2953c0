package tsvstat

import (
	"fmt"
	"sort"

	"github.com/viant/sqlite-tsv/tsvector"
)

// Entry is the aggregate for a single word.
type Entry struct {
	Word   string
	NDoc   int // number of documents the word occurred in
	NEntry int // total number of occurrences
}

// Statistics accumulates per-word document and occurrence counts over a set
// of text-search vectors.
type Statistics struct {
	entries map[string]*Entry
	docs    int
}

// New returns empty statistics.
func New() *Statistics {
	return &Statistics{entries: make(map[string]*Entry)}
}

// Add folds one document's vector into the statistics. Each word counts once
// per document; its occurrence count grows by the number of stored positions,
// or by one when the vector keeps no positions for it.
func (s *Statistics) Add(v tsvector.Vector) {
	s.docs++
	for _, lexeme := range v.Lexemes() {
		entry := s.entries[lexeme.Text()]
		if entry == nil {
			entry = &Entry{Word: lexeme.Text()}
			s.entries[lexeme.Text()] = entry
		}
		entry.NDoc++
		if n := lexeme.Count(); n > 0 {
			entry.NEntry += n
		} else {
			entry.NEntry++
		}
	}
}

// Docs returns the number of vectors folded in so far.
func (s *Statistics) Docs() int { return s.docs }

// Len returns the number of distinct words.
func (s *Statistics) Len() int { return len(s.entries) }

// Lookup returns the aggregate for one word.
func (s *Statistics) Lookup(word string) (Entry, bool) {
	entry := s.entries[word]
	if entry == nil {
		return Entry{}, false
	}
	return *entry, true
}

// Words returns every distinct word in ascending order.
func (s *Statistics) Words() []string {
	words := make([]string, 0, len(s.entries))
	for word := range s.entries {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// Top returns up to k entries ordered by document count descending, ties
// broken by word ascending.
func (s *Statistics) Top(k int) []Entry {
	all := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		all = append(all, *entry)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].NDoc != all[j].NDoc {
			return all[i].NDoc > all[j].NDoc
		}
		return all[i].Word < all[j].Word
	})
	if k >= 0 && k < len(all) {
		all = all[:k]
	}
	return all
}

// MarshalBinary encodes the statistics as: doc count (uint32), word count
// (uint32), then per word: word length (uint32), word bytes, ndoc (uint32),
// nentry (uint32). Words are written in ascending order so equal statistics
// encode identically.
func (s *Statistics) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 8+len(s.entries)*16) // Rough size estimate.
	putU32 := func(v uint32) {
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	putU32(uint32(s.docs))
	putU32(uint32(len(s.entries)))
	for _, word := range s.Words() {
		entry := s.entries[word]
		putU32(uint32(len(word)))
		buf = append(buf, word...)
		putU32(uint32(entry.NDoc))
		putU32(uint32(entry.NEntry))
	}
	return buf, nil
}

// UnmarshalBinary restores statistics from data produced by MarshalBinary.
func (s *Statistics) UnmarshalBinary(data []byte) error {
	off := 0
	getU32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("tsvstat: truncated statistics data")
		}
		v := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		off += 4
		return v, nil
	}
	docs, err := getU32()
	if err != nil {
		return err
	}
	count, err := getU32()
	if err != nil {
		return err
	}
	entries := make(map[string]*Entry, count)
	for i := uint32(0); i < count; i++ {
		wordLen, err := getU32()
		if err != nil {
			return err
		}
		if off+int(wordLen) > len(data) {
			return fmt.Errorf("tsvstat: truncated statistics data")
		}
		word := string(data[off : off+int(wordLen)])
		off += int(wordLen)
		ndoc, err := getU32()
		if err != nil {
			return err
		}
		nentry, err := getU32()
		if err != nil {
			return err
		}
		entries[word] = &Entry{Word: word, NDoc: int(ndoc), NEntry: int(nentry)}
	}
	if off != len(data) {
		return fmt.Errorf("tsvstat: %d trailing bytes after statistics data", len(data)-off)
	}
	s.docs = int(docs)
	s.entries = entries
	return nil
}
