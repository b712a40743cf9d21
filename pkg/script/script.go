// Package script classifies cover text as Persian or Latin and counts
// the bit-insertion opportunities each script offers: kashida join
// points for Persian, homoglyph-substitutable letters for Latin.
package script

import "unicode"

// Script is the dominant writing system of a piece of cover text.
type Script int

const (
	// Mixed means neither Persian nor Latin characters reach a clear
	// majority; script-dependent carriers have zero capacity here.
	Mixed Script = iota
	Persian
	Latin
)

func (s Script) String() string {
	switch s {
	case Persian:
		return "persian"
	case Latin:
		return "latin"
	default:
		return "mixed"
	}
}

// Kashida is the Arabic tatweel (U+0640), inserted between connecting
// Persian letters as a bit-1 marker.
const Kashida = '\u0640'

// IsPersianLetter reports whether r is a letter in the Arabic block used
// by Persian text. Digits, punctuation and the kashida itself do not
// count.
func IsPersianLetter(r rune) bool {
	if r == Kashida {
		return false
	}
	if r >= 0x0600 && r <= 0x06FF {
		return unicode.IsLetter(r)
	}
	return false
}

// nonConnecting holds the Persian letters that never join to the letter
// that follows them, so no kashida can be placed after them.
var nonConnecting = map[rune]bool{
	'آ': true, // آ
	'أ': true, // أ
	'إ': true, // إ
	'ا': true, // ا
	'د': true, // د
	'ذ': true, // ذ
	'ر': true, // ر
	'ز': true, // ز
	'ژ': true, // ژ
	'و': true, // و
	'ء': true, // ء
}

// Connects reports whether the Persian letter r joins to the following
// letter, making the position after it a kashida opportunity.
func Connects(r rune) bool {
	return IsPersianLetter(r) && !nonConnecting[r]
}

func isBasicLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Detect classifies text by counting Persian-range and basic-Latin
// letters, ignoring whitespace, digits and punctuation. One class must
// exceed half of all classified characters; otherwise the text is Mixed.
// Kashidas and homoglyph look-alikes are counted with the script they
// visually belong to, so classification is stable across an embedding
// round trip.
func Detect(text string) Script {
	var persian, latin, total int
	for _, r := range text {
		if r == Kashida {
			continue
		}
		if _, ok := fromHomoglyph[r]; ok {
			latin++
			total++
			continue
		}
		switch {
		case IsPersianLetter(r):
			persian++
			total++
		case isBasicLatinLetter(r):
			latin++
			total++
		case unicode.IsLetter(r):
			// Letters from other scripts count against both majorities.
			total++
		}
	}
	if total == 0 {
		return Mixed
	}
	switch {
	case persian*2 > total:
		return Persian
	case latin*2 > total:
		return Latin
	default:
		return Mixed
	}
}

// KashidaOpportunities counts positions where a kashida may be inserted:
// a connecting Persian letter immediately followed by another Persian
// letter. Pre-existing kashidas are skipped, matching the encoder, which
// strips them from the cover before embedding.
func KashidaOpportunities(text string) int {
	var count int
	var prev rune
	for _, r := range text {
		if r == Kashida {
			continue
		}
		if Connects(prev) && IsPersianLetter(r) {
			count++
		}
		prev = r
	}
	return count
}

// SubstitutableLatin counts characters in text that have a homoglyph
// counterpart, in either direction, so capacity stays stable across a
// round trip.
func SubstitutableLatin(text string) int {
	var count int
	for _, r := range text {
		if Eligible(r) {
			count++
		}
	}
	return count
}
