// Package extract holds the ordered pattern catalogs that pull the four
// naming fields out of normalized document text.
//
// Every extractor follows the same contract: rules are tried in order and
// the first rule whose capture passes the field's validation predicate wins.
// Later rules are never consulted once a rule has produced a valid value.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// FieldKind identifies one of the extracted naming fields.
type FieldKind int

const (
	// FieldNone is the blank slot in a field order.
	FieldNone FieldKind = iota
	FieldCompany
	FieldDate
	FieldInvoiceNumber
	FieldCardNumber
)

// matchTimeout bounds a single regex evaluation. Several catalog rules use
// lazy wildcards and look-around, so a pathological page must not stall a batch.
const matchTimeout = 2 * time.Second

// Kinds lists the extractable fields in pipeline order.
var Kinds = []FieldKind{FieldCompany, FieldDate, FieldInvoiceNumber, FieldCardNumber}

// String returns the user-facing label of the field.
func (k FieldKind) String() string {
	switch k {
	case FieldCompany:
		return "Company"
	case FieldDate:
		return "Date"
	case FieldInvoiceNumber:
		return "Invoice #"
	case FieldCardNumber:
		return "Card Number"
	default:
		return ""
	}
}

// MetadataKey returns the custom document-info key the field is written under.
// "Invoice #" becomes "/InvoiceNumber" and spaces are dropped.
func (k FieldKind) MetadataKey() string {
	label := k.String()
	if label == "" {
		return ""
	}
	label = strings.ReplaceAll(label, " #", "Number")
	return "/" + strings.ReplaceAll(label, " ", "")
}

// ParseFieldKind maps a configured field name onto a FieldKind. Blank and
// "none" map to FieldNone. The second return is false for unknown names.
func ParseFieldKind(name string) (FieldKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "-":
		return FieldNone, true
	case "company":
		return FieldCompany, true
	case "date":
		return FieldDate, true
	case "invoice #", "invoicenumber", "invoice number", "invoice":
		return FieldInvoiceNumber, true
	case "card number", "cardnumber", "card":
		return FieldCardNumber, true
	default:
		return FieldNone, false
	}
}

// Result is a validated match for one field of one document.
type Result struct {
	// Value is the canonical value used in the filename and metadata.
	Value string
	// Matched is the exact text span that produced Value. Scrubbing uses it
	// verbatim and it is never re-derived.
	Matched string
	// Synonyms carries the whole keyword tuple of a company match.
	Synonyms []string
	// Rule names the catalog rule that matched, for logging.
	Rule string
}

// Extractor finds one field kind in normalized text. Find returns a nil
// Result when nothing validated.
type Extractor interface {
	Kind() FieldKind
	Find(text string) (*Result, error)
}

// ExtractAll runs one extractor over a batch of normalized texts keyed by
// filename. A document whose extraction fails or panics maps to nil and the
// remaining documents are still processed. It is the standalone per-field
// entry point; the naming pipeline goes through autoname.Sequencer instead.
func ExtractAll(ctx context.Context, e Extractor, texts map[string]string, logger *slog.Logger) map[string]*Result {
	if logger == nil {
		logger = slog.Default()
	}

	results := make(map[string]*Result, len(texts))
	for name, text := range texts {
		if ctx.Err() != nil {
			results[name] = nil
			continue
		}

		res, err := SafeFind(e, text)
		if err != nil {
			logger.Warn("field extraction failed",
				"field", e.Kind().String(), "file", name, "error", err)
		}
		results[name] = res
	}
	return results
}

// SafeFind calls e.Find and converts a panic into an error.
func SafeFind(e Extractor, text string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%s extractor panic: %v", e.Kind(), r)
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return e.Find(text)
}

// formatFunc turns a regex match into a candidate value. The boolean is
// false when the match cannot be formatted into a valid value.
type formatFunc func(m *regexp2.Match) (string, bool)

type rule struct {
	name   string
	re     *regexp2.Regexp
	format formatFunc
}

func newRule(name, pattern string, format formatFunc) rule {
	return rule{name: name, re: compile(pattern), format: format}
}

func compile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

// Catalog is a priority-ordered list of rules for one field kind.
type Catalog struct {
	kind  FieldKind
	rules []rule
}

// Kind implements Extractor.
func (c *Catalog) Kind() FieldKind {
	return c.kind
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Find implements Extractor. Only the first match of each rule is examined;
// a rule whose capture fails validation falls through to the next rule.
func (c *Catalog) Find(text string) (*Result, error) {
	var firstErr error

	for _, r := range c.rules {
		m, err := r.re.FindStringMatch(text)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s rule %s: %w", c.kind, r.name, err)
			}
			continue
		}
		if m == nil {
			continue
		}

		value, ok := r.format(m)
		if !ok {
			continue
		}

		return &Result{Value: value, Matched: m.String(), Rule: r.name}, nil
	}

	return nil, firstErr
}

// group returns the text of a capture group and whether it participated.
func group(m *regexp2.Match, n int) (string, bool) {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}

// lastGroup returns the highest-numbered capture group of the match.
func lastGroup(m *regexp2.Match) (string, bool) {
	return group(m, m.GroupCount()-1)
}
