// Package numerology implements the Pythagorean calculation engine shared by
// the client and the backend: Life Path, Destiny, Soul Urge, Personality and
// personal cycle numbers, with Vietnamese letter handling.
package numerology

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Pythagorean letter values: A=1 ... I=9, J=1, ... pattern ((pos-1)%9)+1.
var letterValues = map[rune]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'O': 6, 'P': 7, 'Q': 8, 'R': 9,
	'S': 1, 'T': 2, 'U': 3, 'V': 4, 'W': 5, 'X': 6, 'Y': 7, 'Z': 8,
}

// baseRune strips diacritics by NFD-decomposing the rune and keeping the
// base character. Vietnamese tone marks and circumflex/horn modifiers all
// reduce to their Latin base this way ('ế' -> 'e', 'ư' -> 'u').
func baseRune(r rune) rune {
	d := []rune(norm.NFD.String(string(r)))
	if len(d) == 0 {
		return r
	}
	return d[0]
}

// LetterValue returns the Pythagorean value 1..9 for a letter, or 0 for
// anything that is not a mappable letter.
func LetterValue(r rune) int {
	u := unicode.ToUpper(r)
	if v, ok := letterValues[baseRune(u)]; ok {
		return v
	}
	if v, ok := letterValues[u]; ok {
		return v
	}
	return 0
}

// IsVowel reports whether the rune is a vowel. Vietnamese vowels with tone
// marks and modifiers (á, ầ, ộ, ữ, ...) count through their base character.
func IsVowel(r rune) bool {
	switch baseRune(unicode.ToLower(r)) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// IsConsonant reports whether the rune is a letter that is not a vowel.
func IsConsonant(r rune) bool {
	return unicode.IsLetter(r) && !IsVowel(r)
}

func extractVowels(text string) []rune {
	var out []rune
	for _, r := range text {
		if IsVowel(r) {
			out = append(out, r)
		}
	}
	return out
}

func extractConsonants(text string) []rune {
	var out []rune
	for _, r := range text {
		if IsConsonant(r) {
			out = append(out, r)
		}
	}
	return out
}

func sumLetterValues(runes []rune) int {
	total := 0
	for _, r := range runes {
		total += LetterValue(r)
	}
	return total
}
