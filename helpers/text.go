package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters without a canonical decomposition
var ligatures = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "Ae", "ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L", "đ", "d", "Đ", "D", "œ", "oe", "Œ", "Oe",
)

// Deburr removes diacritical marks, so "Āgenskalns" becomes "Agenskalns".
func Deburr(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, ligatures.Replace(text))
	if err != nil {
		return text
	}
	return out
}

// NormalizeText folds diacritics and converts text to snake_case.
func NormalizeText(text string) string {
	parts := Words(Deburr(text))
	for i, w := range parts {
		parts[i] = strings.ToLower(w)
	}
	return strings.Join(parts, "_")
}

// CamelCase converts text to lowerCamelCase, e.g. "Price, m2" -> "priceM2".
func CamelCase(text string) string {
	parts := Words(Deburr(text))
	// a Caser keeps state, so it is not shared between goroutines
	title := cases.Title(language.Und)
	var b strings.Builder
	for i, w := range parts {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

type runeClass int

const (
	classOther runeClass = iota
	classLower
	classUpper
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsLower(r):
		return classLower
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsLetter(r):
		return classLower
	default:
		return classOther
	}
}

// Words splits text into words on separators, letter/digit boundaries and
// case changes ("fooBar" -> foo, Bar; "XMLFile" -> XML, File).
func Words(text string) []string {
	rs := []rune(text)
	var words []string
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(rs[start:end]))
		}
		start = -1
	}

	for i, r := range rs {
		c := classify(r)
		if c == classOther {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := classify(rs[i-1])
		switch {
		case (prev == classDigit) != (c == classDigit):
			flush(i)
			start = i
		case prev == classLower && c == classUpper:
			flush(i)
			start = i
		case prev == classUpper && c == classUpper && i+1 < len(rs) && classify(rs[i+1]) == classLower:
			flush(i)
			start = i
		}
	}
	flush(len(rs))

	return words
}
