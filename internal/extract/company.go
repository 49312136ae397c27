package extract

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/a3tai/mcp-pdf-autoname/internal/textnorm"
)

// CompanyEntry maps a tuple of keyword synonyms onto one canonical name.
type CompanyEntry struct {
	Name     string   `mapstructure:"name" yaml:"name" json:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
}

// Dictionary is the ordered company dictionary. Entry order is match priority.
type Dictionary []CompanyEntry

// genericSuffixes are never used as match keywords on their own.
var genericSuffixes = map[string]bool{"llc": true, "inc": true}

type companyMatcher struct {
	entry    CompanyEntry
	keywords []string
	patterns []*regexp2.Regexp
}

// CompanyExtractor finds the first dictionary entry with a keyword present
// as a whole word in normalized text.
type CompanyExtractor struct {
	matchers []companyMatcher
}

// NewCompanyExtractor compiles one whole-word pattern per usable keyword.
// Entries without a name or without usable keywords are dropped.
func NewCompanyExtractor(dict Dictionary) *CompanyExtractor {
	ce := &CompanyExtractor{}
	for _, entry := range dict {
		if strings.TrimSpace(entry.Name) == "" {
			continue
		}

		cm := companyMatcher{entry: entry}
		for _, kw := range MatchKeywords(entry.Keywords) {
			cm.keywords = append(cm.keywords, kw)
			cm.patterns = append(cm.patterns, compile(wordPattern(kw)))
		}
		if len(cm.patterns) > 0 {
			ce.matchers = append(ce.matchers, cm)
		}
	}
	return ce
}

// Kind implements Extractor.
func (ce *CompanyExtractor) Kind() FieldKind {
	return FieldCompany
}

// Len returns the number of usable dictionary entries.
func (ce *CompanyExtractor) Len() int {
	return len(ce.matchers)
}

// Find implements Extractor. The result carries the canonical name, the
// matched keyword and the entry's full synonym tuple.
func (ce *CompanyExtractor) Find(text string) (*Result, error) {
	for _, cm := range ce.matchers {
		for i, re := range cm.patterns {
			m, err := re.FindStringMatch(text)
			if err != nil {
				return nil, fmt.Errorf("company keyword %q: %w", cm.keywords[i], err)
			}
			if m == nil {
				continue
			}

			synonyms := make([]string, len(cm.entry.Keywords))
			copy(synonyms, cm.entry.Keywords)

			return &Result{
				Value:    cm.entry.Name,
				Matched:  m.String(),
				Synonyms: synonyms,
				Rule:     cm.keywords[i],
			}, nil
		}
	}
	return nil, nil
}

// MatchKeywords normalizes keywords and drops blanks and generic legal
// suffixes such as "llc" and "inc".
func MatchKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		nk := textnorm.Normalize(kw)
		if nk == "" || genericSuffixes[nk] {
			continue
		}
		out = append(out, nk)
	}
	return out
}

func wordPattern(literal string) string {
	return `\b` + regexp2.Escape(literal) + `\b`
}
