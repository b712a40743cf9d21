package script

// toHomoglyph maps basic Latin letters onto visually identical Cyrillic
// or Greek code points. Only letters with a pixel-identical counterpart
// in common fonts are listed.
var toHomoglyph = map[rune]rune{
	'a': 'а', // Cyrillic а
	'c': 'с', // Cyrillic с
	'e': 'е', // Cyrillic е
	'i': 'і', // Cyrillic і
	'j': 'ј', // Cyrillic ј
	'o': 'о', // Cyrillic о
	'p': 'р', // Cyrillic р
	's': 'ѕ', // Cyrillic ѕ
	'x': 'х', // Cyrillic х
	'y': 'у', // Cyrillic у
	'A': 'А', // Cyrillic А
	'B': 'В', // Cyrillic В
	'C': 'С', // Cyrillic С
	'E': 'Е', // Cyrillic Е
	'H': 'Н', // Cyrillic Н
	'I': 'І', // Cyrillic І
	'J': 'Ј', // Cyrillic Ј
	'K': 'К', // Cyrillic К
	'M': 'М', // Cyrillic М
	'O': 'О', // Cyrillic О
	'P': 'Р', // Cyrillic Р
	'S': 'Ѕ', // Cyrillic Ѕ
	'T': 'Т', // Cyrillic Т
	'X': 'Х', // Cyrillic Х
	'Y': 'Υ', // Greek Υ
}

var fromHomoglyph = func() map[rune]rune {
	m := make(map[rune]rune, len(toHomoglyph))
	for latin, glyph := range toHomoglyph {
		m[glyph] = latin
	}
	return m
}()

// ToHomoglyph returns the look-alike for a Latin letter.
func ToHomoglyph(r rune) (rune, bool) {
	g, ok := toHomoglyph[r]
	return g, ok
}

// FromHomoglyph returns the Latin original for a look-alike.
func FromHomoglyph(r rune) (rune, bool) {
	l, ok := fromHomoglyph[r]
	return l, ok
}

// Eligible reports whether r participates in homoglyph substitution,
// either as a Latin original or as an already-substituted look-alike.
func Eligible(r rune) bool {
	if _, ok := toHomoglyph[r]; ok {
		return true
	}
	_, ok := fromHomoglyph[r]
	return ok
}
