// Package textnorm canonicalizes extracted document text into the single
// lower-cased, comma-free, whitespace-collapsed string that every field
// extractor matches against.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize strips commas, collapses every whitespace run to a single space
// and lower-cases the result. It is idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, ",", "")
	text = strings.Join(strings.Fields(text), " ")

	// A Caser carries state, so one is built per call.
	return cases.Lower(language.Und).String(text)
}
