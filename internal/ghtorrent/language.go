package ghtorrent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StudyLanguages is the language set of the large cross-language sample.
// The alias "study" in a language list expands to it.
var StudyLanguages = []string{
	"c", "c++", "c#", "objective-c", "go", "java", "coffeescript", "javascript",
	"typescript", "ruby", "php", "python", "perl", "haskell", "scala",
}

// FoldLanguage normalizes a language name for matching: trimmed, lower
// case, diacritics removed.
func FoldLanguage(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(out)
}

// LanguageSet folds langs into a lookup set, expanding "study".
func LanguageSet(langs []string) map[string]bool {
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		f := FoldLanguage(l)
		if f == "study" {
			for _, s := range StudyLanguages {
				set[s] = true
			}
			continue
		}
		if f != "" {
			set[f] = true
		}
	}
	return set
}
