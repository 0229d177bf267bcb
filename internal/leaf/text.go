package leaf

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	asciiWordPattern = regexp.MustCompile(`[^\x00-\x2f\x3a-\x40\x5b-\x60\x7b-\x7f]+`)
	unicodeHint      = regexp.MustCompile(`[a-z][A-Z]|[A-Z]{2}[a-z]|[0-9][a-zA-Z]|[a-zA-Z][0-9]|[^a-zA-Z0-9 ]`)
)

// Capitalize upper-cases the first rune of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// UpperFirst upper-cases the first rune of s and leaves the rest alone.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}

// ToCamelCase converts s to lowerCamelCase.
func ToCamelCase(s string) string {
	return strcase.ToLowerCamel(strings.Join(Words(s), " "))
}

// ToKebabCase converts s to kebab-case.
func ToKebabCase(s string) string {
	return strcase.ToKebab(strings.Join(Words(s), " "))
}

// ToSnakeCase converts s to snake_case.
func ToSnakeCase(s string) string {
	return strcase.ToSnake(strings.Join(Words(s), " "))
}

// ToStartCase converts s to Start Case: words separated by a single space,
// each with an upper-cased first rune.
func ToStartCase(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = UpperFirst(w)
	}
	return strings.Join(words, " ")
}

// Words splits s into words. Plain ASCII input splits on separators only;
// anything else also splits on case and letter/digit boundaries.
func Words(s string) []string {
	if HasUnicodeWord(s) {
		return UnicodeWords(s)
	}
	return AsciiWords(s)
}

// AsciiWords returns the runs of s that are not ASCII punctuation,
// whitespace or control characters.
func AsciiWords(s string) []string {
	words := asciiWordPattern.FindAllString(s, -1)
	if words == nil {
		return []string{}
	}
	return words
}

// HasUnicodeWord reports whether s needs the Unicode-aware splitter.
func HasUnicodeWord(s string) bool {
	return unicodeHint.MatchString(s)
}

// UnicodeWords splits s on non-alphanumeric runes and on boundaries between
// lower and upper case, between letters and digits, and before the last
// upper-case rune of an acronym followed by a lower-case rune ("XMLHttp" is
// "XML", "Http").
func UnicodeWords(s string) []string {
	runes := []rune(s)
	words := []string{}
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if !isWordRune(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if wordBoundary(runes, i) {
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// wordBoundary reports whether a new word starts at runes[i], given that
// runes[i-1] is part of the current word.
func wordBoundary(runes []rune, i int) bool {
	prev, cur := runes[i-1], runes[i]
	switch {
	case unicode.Is(unicode.Mn, cur):
		return false
	case unicode.IsDigit(prev) != unicode.IsDigit(cur):
		return true
	case unicode.IsLower(prev) && unicode.IsUpper(cur):
		return true
	case unicode.IsUpper(prev) && unicode.IsUpper(cur):
		return i+1 < len(runes) && unicode.IsLower(runes[i+1])
	}
	return false
}

// Compare orders a and b with the root collation: -1, 0 or +1.
func Compare(a, b string) int {
	return collate.New(language.Und).CompareString(a, b)
}
