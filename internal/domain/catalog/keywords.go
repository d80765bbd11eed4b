package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// минимальная длина значимого слова (слова из 1-2 букв отбрасываются)
const minKeywordLen = 3

// Keywords приводит название к набору ключевых слов:
// нижний регистр, без диакритики и пунктуации, без коротких слов, без повторов.
func Keywords(s string) []string {
	s = strings.ToLower(stripDiacritics(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)

	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) < minKeywordLen {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
