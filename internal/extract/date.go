package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var months = map[string]string{
	"jan": "01", "january": "01",
	"feb": "02", "february": "02",
	"mar": "03", "march": "03",
	"apr": "04", "april": "04",
	"may": "05",
	"jun": "06", "june": "06",
	"jul": "07", "july": "07",
	"aug": "08", "august": "08",
	"sep": "09", "september": "09",
	"oct": "10", "october": "10",
	"nov": "11", "november": "11",
	"dec": "12", "december": "12",
}

// ResolveMonth maps an abbreviated or full lower-case month name to its
// two-digit number.
func ResolveMonth(name string) (string, bool) {
	m, ok := months[name]
	return m, ok
}

// dateRules is ordered from the least to the most ambiguous shape. Every
// formatter yields MM-DD-YY.
var dateRules = []struct {
	name    string
	pattern string
	format  formatFunc
}{
	{"iso", `\b(\d{4})-(\d{2})-(\d{2})\b`, func(m *regexp2.Match) (string, bool) {
		return joinDate(g(m, 2), g(m, 3), lastN(g(m, 1), 2))
	}},
	{"slash", `\b(\d{1,2})/(\d{1,2})/(\d{4})\b`, func(m *regexp2.Match) (string, bool) {
		return joinDate(zfill(g(m, 1), 2), zfill(g(m, 2), 2), lastN(g(m, 3), 2))
	}},
	{"day-month-year", `\b(\d{2})-([a-z]{3})-(\d{4})\b`, func(m *regexp2.Match) (string, bool) {
		month, ok := ResolveMonth(g(m, 2))
		if !ok {
			return "", false
		}
		return joinDate(month, g(m, 1), lastN(g(m, 3), 2))
	}},
	{"dotted", `\b(\d{1,2})\.(\d{1,2})\.(\d{2})\b`, func(m *regexp2.Match) (string, bool) {
		return joinDate(zfill(g(m, 1), 2), zfill(g(m, 2), 2), g(m, 3))
	}},
	{"month-day-comma-year", `\b([a-z]+)\s+(\d{1,2}),\s+(\d{4})\b`, spelledMonth},
	{"month-day-year", `\b([a-z]+)\s+(\d{1,2})\s+(\d{4})\b`, spelledMonth},
	{"month-ordinal-year", `\b([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?\s*,?\s*(\d{4})\b`, spelledMonth},
	{"generic", `\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`, func(m *regexp2.Match) (string, bool) {
		return joinDate(zfill(g(m, 1), 2), zfill(g(m, 2), 2), lastN(zfill(g(m, 3), 4), 2))
	}},
}

// NewDateExtractor returns the date catalog.
func NewDateExtractor() *Catalog {
	c := &Catalog{kind: FieldDate}
	for _, r := range dateRules {
		c.rules = append(c.rules, newRule(r.name, r.pattern, r.format))
	}
	return c
}

// ValidDate reports whether a formatted date has the MM-DD-YY shape, which
// is checked as exactly two hyphens.
func ValidDate(formatted string) bool {
	return strings.Count(formatted, "-") == 2
}

func spelledMonth(m *regexp2.Match) (string, bool) {
	month, ok := ResolveMonth(g(m, 1))
	if !ok {
		return "", false
	}
	return joinDate(month, zfill(g(m, 2), 2), lastN(g(m, 3), 2))
}

func joinDate(month, day, year string) (string, bool) {
	if month == "" || day == "" || year == "" {
		return "", false
	}
	out := fmt.Sprintf("%s-%s-%s", month, day, year)
	return out, ValidDate(out)
}

func g(m *regexp2.Match, n int) string {
	s, _ := group(m, n)
	return s
}

func zfill(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat("0", width-n) + s
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
