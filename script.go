package deckforge

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// WidthClass classifies how much horizontal space a rune occupies
// relative to the font size when no real font metrics are available.
type WidthClass int

const (
	// WidthNarrow covers Latin letters, digits, and most punctuation.
	WidthNarrow WidthClass = iota
	// WidthWide covers CJK ideographs, kana, hangul, and fullwidth forms.
	WidthWide
	// WidthAmbiguous covers runes rendered wide in East Asian contexts
	// and narrow elsewhere.
	WidthAmbiguous
)

// ClassifyRune returns the East Asian width class of r.
func ClassifyRune(r rune) WidthClass {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return WidthWide
	case width.EastAsianAmbiguous:
		return WidthAmbiguous
	default:
		return WidthNarrow
	}
}

// IsCJK reports whether r is in a CJK (Chinese, Japanese, Korean) Unicode block.
// This includes:
//   - CJK Unified Ideographs: U+4E00–U+9FFF
//   - CJK Extension A: U+3400–U+4DBF
//   - Hiragana: U+3040–U+309F
//   - Katakana: U+30A0–U+30FF
//   - Hangul: U+AC00–U+D7AF
func IsCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3040 && r <= 0x309F) ||
		(r >= 0x30A0 && r <= 0x30FF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}

// ContainsCJK reports whether s contains any CJK rune.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if IsCJK(r) {
			return true
		}
	}
	return false
}

// Kinsoku character classes for CJK line breaking. A line must not
// start with a closing mark and must not end with an opening mark.
const (
	kinsokuNoStart = "。、，．：；！？）」』】〉》ー々ぁぃぅぇぉっゃゅょァィゥェォッャュョ·"
	kinsokuNoEnd   = "（「『【〈《"
)

// canBreakBetween reports whether a line break is permitted between
// prev and next. Breaks are always allowed at spaces. Between CJK
// runes a break is allowed anywhere the kinsoku rules permit.
func canBreakBetween(prev, next rune) bool {
	if unicode.IsSpace(prev) || unicode.IsSpace(next) {
		return true
	}
	if !IsCJK(prev) && !IsCJK(next) {
		return false
	}
	if strings.ContainsRune(kinsokuNoStart, next) {
		return false
	}
	if strings.ContainsRune(kinsokuNoEnd, prev) {
		return false
	}
	return true
}

// isSentenceEndRune reports whether r terminates a sentence.
func isSentenceEndRune(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// commonAbbreviations that end with a period but do not end a sentence.
var commonAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"vs": true, "etc": true, "inc": true, "ltd": true, "co": true,
	"e.g": true, "i.e": true, "approx": true, "est": true, "fig": true,
	"no": true, "vol": true, "dept": true, "corp": true, "jr": true,
	"sr": true, "st": true, "q1": true, "q2": true, "q3": true, "q4": true,
}

// SplitSentences splits s into sentences on terminal punctuation,
// guarding decimal points and common abbreviations. The terminator
// stays attached to its sentence. Whitespace-only fragments are
// dropped.
func SplitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i, r := range runes {
		if !isSentenceEndRune(r) {
			continue
		}
		if r == '.' && i+1 < len(runes) {
			// Decimal point: digit on both sides.
			if i > 0 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				continue
			}
		}
		if r == '.' && isAbbreviationBefore(runes, i) {
			continue
		}
		// Consume trailing closers so they stay with the sentence.
		end := i + 1
		for end < len(runes) && (runes[end] == '"' || runes[end] == '\'' || runes[end] == '」' || runes[end] == '』' || runes[end] == '）' || runes[end] == ')') {
			end++
		}
		frag := strings.TrimSpace(string(runes[start:end]))
		if frag != "" {
			out = append(out, frag)
		}
		start = end
	}
	if start < len(runes) {
		frag := strings.TrimSpace(string(runes[start:]))
		if frag != "" {
			out = append(out, frag)
		}
	}
	return out
}

// isAbbreviationBefore reports whether the word ending at the period
// runes[dot] is a known abbreviation or a single initial.
func isAbbreviationBefore(runes []rune, dot int) bool {
	wordStart := dot
	for wordStart > 0 && (unicode.IsLetter(runes[wordStart-1]) || unicode.IsDigit(runes[wordStart-1]) || runes[wordStart-1] == '.') {
		wordStart--
	}
	word := strings.ToLower(strings.TrimSuffix(string(runes[wordStart:dot]), "."))
	if word == "" {
		return false
	}
	if len([]rune(word)) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return true
	}
	return commonAbbreviations[word]
}
