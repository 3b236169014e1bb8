package utils

import "unicode"

// scriptLanguages maps Indic scripts to the language assumed for them.
// Assamese shares the Bengali script, so Bengali text is resolved as bn.
var scriptLanguages = []struct {
	table *unicode.RangeTable
	code  string
}{
	{unicode.Devanagari, "hi"},
	{unicode.Bengali, "bn"},
	{unicode.Telugu, "te"},
}

// DetectScriptLanguage returns the language of the first Indic script found in text.
func DetectScriptLanguage(text string) (string, bool) {
	for _, r := range text {
		if r < 0x0900 {
			continue
		}
		for _, s := range scriptLanguages {
			if unicode.Is(s.table, r) {
				return s.code, true
			}
		}
	}
	return "", false
}
