package extract

import (
	"fmt"
	"strings"
)

// Scrub deletes every whole-word occurrence of span from text.
func Scrub(text, span string) (string, error) {
	if span == "" || text == "" {
		return text, nil
	}
	out, err := compile(wordPattern(span)).Replace(text, "", -1, -1)
	if err != nil {
		return text, fmt.Errorf("scrub %q: %w", span, err)
	}
	return out, nil
}

// ScrubKeywords deletes every usable synonym of a company match, not just
// the one that matched.
func ScrubKeywords(text string, synonyms []string) (string, error) {
	var err error
	for _, kw := range MatchKeywords(synonyms) {
		if text, err = Scrub(text, kw); err != nil {
			return text, err
		}
	}
	return text, nil
}

var dateScrubber = NewDateExtractor()

// ScrubAllDates blanks every span matched by any date rule with a single
// space, so no date-shaped text survives into the invoice-number search.
func ScrubAllDates(text string) (string, error) {
	for _, r := range dateScrubber.rules {
		out, err := r.re.Replace(text, " ", -1, -1)
		if err != nil {
			return text, fmt.Errorf("date rule %s: %w", r.name, err)
		}
		text = strings.TrimSpace(out)
	}
	return text, nil
}
