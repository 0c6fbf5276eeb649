// Package speech connects the museum to an external speech service and
// normalises recognised phrases for command matching.
package speech

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases text, strips diacritics and punctuation and collapses
// whitespace, so "Próxima paragem!" and "proxima  paragem" compare equal.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			return ' '
		}
		return -1
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// HasPhrase reports whether folded text contains phrase as whole words.
func HasPhrase(folded, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+folded+" ", " "+phrase+" ")
}
