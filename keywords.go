package deckforge

import (
	"strings"
	"unicode"
)

// defaultKeywordCap bounds the keyword set extracted per slide.
const defaultKeywordCap = 50

// KeywordSet is a deduplicated bag of content tokens from one slide.
type KeywordSet map[string]struct{}

// Jaccard returns |a∩b| / |a∪b|. Either set being empty yields 0.
func (a KeywordSet) Jaccard(b KeywordSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Keywords tokenizes text into at most limit distinct keywords.
// Latin-script words are lowercased and stopword-filtered; runs of
// CJK characters are split into overlapping bigrams; bigrams and lone
// runes made purely of hiragana are grammar rather than content and
// are dropped.
// A limit of 0 or less applies the default cap.
func (lex *Lexicon) Keywords(text string, limit int) KeywordSet {
	if limit <= 0 {
		limit = defaultKeywordCap
	}
	set := make(KeywordSet)
	add := func(tok string) bool {
		if len(set) >= limit {
			return false
		}
		if _, stop := lex.Stopwords[tok]; stop {
			return true
		}
		set[tok] = struct{}{}
		return true
	}

	var word []rune
	var span []rune
	flushWord := func() bool {
		if len(word) >= 2 {
			if !add(strings.ToLower(string(word))) {
				return false
			}
		}
		word = word[:0]
		return true
	}
	flushSpan := func() bool {
		defer func() { span = span[:0] }()
		if len(span) == 1 {
			if unicode.Is(unicode.Hiragana, span[0]) {
				return true
			}
			return add(string(span))
		}
		for i := 0; i+1 < len(span); i++ {
			if unicode.Is(unicode.Hiragana, span[i]) && unicode.Is(unicode.Hiragana, span[i+1]) {
				continue
			}
			if !add(string(span[i : i+2])) {
				return false
			}
		}
		return true
	}

	for _, r := range text {
		switch {
		case IsCJK(r):
			if !flushWord() {
				return set
			}
			span = append(span, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !flushSpan() {
				return set
			}
			word = append(word, r)
		default:
			if !flushWord() || !flushSpan() {
				return set
			}
		}
	}
	flushWord()
	flushSpan()
	return set
}
