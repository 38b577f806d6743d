// Package companyname derives a display company name from a report filename.
// The transform is deterministic and purely lexical; the analysis service does
// its own, smarter matching downstream.
package companyname

import (
	"path/filepath"
	"strings"
	"unicode"
)

// FallbackName is returned when nothing usable survives the transform.
const FallbackName = "Unknown Company"

// boilerplate words dropped by whole-word comparison. A match inside a
// longer word ("Reportlinker", "Esgian") is not boilerplate and stays.
var boilerplateWords = map[string]struct{}{
	"sustainability": {},
	"environmental":  {},
	"annual":         {},
	"impact":         {},
	"report":         {},
	"csr":            {},
	"esg":            {},
}

// Extract strips the extension, collapses separators, drops boilerplate
// report words and years, and title-cases what remains.
func Extract(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	name := collapseSeparators(base)
	if name == "" {
		return FallbackName
	}

	var kept []string
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if _, drop := boilerplateWords[word]; drop {
			continue
		}
		if isNumeric(word) {
			continue
		}
		kept = append(kept, word)
	}

	result := titleCase(strings.Join(kept, " "))
	if len(result) >= 2 {
		return result
	}

	// Too little survived the filtering; fall back to the de-separated base.
	fallback := titleCase(name)
	if fallback == "" {
		return FallbackName
	}
	return fallback
}

func collapseSeparators(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, ".", " ")
	return strings.Join(strings.Fields(s), " ")
}

func isNumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
