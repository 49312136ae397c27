package extract

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// invoicePatterns run labeled forms first and bare digit runs last. A bare
// 6-8 digit fallback can capture a zip code or a page number, so this order
// must not change; earlier scrubbing is what keeps the fallbacks usable.
var invoicePatterns = []string{
	`order\s*#?\s*:\s*([a-z0-9]{8,30})`,
	`(?:invoice|inv)\s*(?:no\.?|number|#)\s*[:#]?\s*([a-z0-9\-_]{3,20})`,
	`invoice\s+no?\.?\s*[:#]?\s*([a-z0-9\-_]+)`,
	`\binvoice\s*(?:nbr\.?|no\.?|number|#)?\s*[:.]?\s*([0-9]{4,})`,
	`\binv(?:oice)?\b\s*(?:no\.?|number|#|[:#])?\s*([0-9]{3,})`,
	`(?:trans(?:action)?\s*#?\s*[:#]?\s*)([0-9]{8,12})\b`,
	`invoice\s+number\s*[:#]?\s*([a-z0-9\-_]+)`,
	`\b(?:transaction|txn|trans)\b\s*(?:number|#|no\.?|id)?\s*[:#.]?\s*(\d{12,18})\b(?!\s*[/-]\d)`,
	`order\s+number\s*[:#]?\s*([0-9]+)`,
	`invoice\s*#?\s*wa\s*\d{5}\s*(?:\d{1,2}/\d{1,2}/\d{4}|\d{2}/\d{2}/\d{4})?\s*(\d{3,})\b`,
	`(?:order\s*(?:id|number|#)?\s*[:=]?\s*)([0-9]{10,16}(?:-\d+)+)\b`,
	`(?s)\b(\d{6,8})\b(?!\s*[/-]\d{1,2})`,
	`invoice\s*[:#]?\s*(\d{4,}[a-z0-9\-_]*)`,
	`order\s+id\s*[:#]?\s*([a-z0-9]+)`,
	`order\s*#?\s*([0-9]+)`,
	`(?<![\d/])(?<!\d{2}-\d{2})(?<!\d{2}/\d{2})(?<!\d{5}\s)\b(\d{6,8})\b(?!\s*-?\s*\d{2})`,
	`\b(\d{6,8})\b(?![-/]\d)`,
	`sales\s+slip\s*#?\s*[:#]?\s*(\d{4,10})\b`,
	`(?:your\s+)?order\s+(?:number|no\.?|id|#)\s*(?:is|:|was|=)?\s*([a-z]{1,4}\d{5,12})\b`,
	`(?:order\s+)?vs\s*([a-zA-Z]?\d{6,10})\b`,
	`(?:id\s*#?\s*|order\s+id\s*[:#]?\s*)([a-f0-9]{20,32})\b`,
	`(?:receipt\s*(?:#|no\.?|number)?\s*[:#]?\s*)([#-]?\d{4,8}(?:-\d{4})?)\b`,
}

var invoiceShape = compile(`^[A-Z0-9\-_]{2,20}$`)

// NewInvoiceExtractor returns the invoice-number catalog.
func NewInvoiceExtractor() *Catalog {
	c := &Catalog{kind: FieldInvoiceNumber}
	for _, p := range invoicePatterns {
		c.rules = append(c.rules, newRule(p, p, formatInvoice))
	}
	return c
}

// ValidInvoiceNumber reports whether an upper-cased candidate is 2-20
// characters of A-Z, 0-9, hyphen or underscore.
func ValidInvoiceNumber(candidate string) bool {
	ok, err := invoiceShape.MatchString(candidate)
	return err == nil && ok
}

func formatInvoice(m *regexp2.Match) (string, bool) {
	raw, ok := group(m, 1)
	if !ok {
		return "", false
	}
	candidate := strings.ToUpper(strings.TrimSpace(raw))
	return candidate, ValidInvoiceNumber(candidate)
}
