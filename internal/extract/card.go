package extract

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// cardPatterns capture the last four digits of a masked or labeled card. The
// digit classes tolerate common OCR confusions which CorrectOCRDigits repairs.
var cardPatterns = []string{
	`(?:c/c#|cc#|visa|mastercard|credit|chip|payment)\s*[:#]?[\s-]*[x*]{8,16}\s*([0-9~olIj]{4})\b`,
	`(?:payment|ccard|credit\s*card)\s*[:#]?\s*ccard[o ]?([0-9~ol]{4})\b`,
	`(?:uisa|visa|mastercard)\s*chip\s*(x{8,16})\s*([0-9~ol]{4})\b`,
	`(?:visa|visaj|mastercard|amex|discover)\s*(?:ending\s*in|ending\s*with|last\s*4|xxxx)\s*([0-9ol]{4})\b`,
	`(?:visa|mastercard|amex|discover)\s*\*{3,}\s*([0-9ol]{4})\b`,
	`(?:card\s*(?:number|#))\s*[:#]?\s*([0-9ol]{4})\b`,
	`(?:chip\s*\(visa\)|visa|credit)\s*\*{3,}\s*([0-9ol]{4})\b`,
	`(?:mastercard|mc|visa|amex|discover|card)\s*[-–—:,]?\s*(\d{4})\b`,
	`(?:visa|mastercard|amex|discover|card)?\s*(?:[#*xX]{4}\s*){3}([0-9olIj]{4})\b`,
	`(?:c/c#|cc#|card\s*#?|visa\s*(?:credit)?)\s*[:#]?\s*(?:x{8,16}|\*{8,16}|[x*\.]{8,16})\s*([0-9~olIj]{4})\b`,
	`(?:visa|mastercard).*?(?:x{8,16}|\*{8,16}|[*x.]{8,16})\s*([0-9ol]{4})\b`,
	`(?:visa|mastercard|credit|payment|charged?|c/c#).*?(x{8,16}|xxxxxxxxxxxx|\*{8,16})\s*([0-9ol]{4})\b`,
	`(?:x{8,16}|\*{8,16}|[*x]{12,16})\s*([0-9ol]{4})\b`,
	`(visa|mastercard)\s*[: ]?\s*(x{8,16}|\*{8,16})\s*([0-9ol]{4})`,
}

var cardShape = compile(`^\d{4}$`)

var ocrDigits = strings.NewReplacer("o", "0", "l", "1", "i", "1")

// NewCardExtractor returns the card-number catalog.
func NewCardExtractor() *Catalog {
	c := &Catalog{kind: FieldCardNumber}
	for _, p := range cardPatterns {
		c.rules = append(c.rules, newRule(p, p, formatCard))
	}
	return c
}

// CorrectOCRDigits lower-cases a candidate and repairs letters OCR commonly
// reads in place of digits: o to 0, l and i to 1.
func CorrectOCRDigits(candidate string) string {
	return ocrDigits.Replace(strings.ToLower(strings.TrimSpace(candidate)))
}

// ValidCardNumber reports whether the candidate is exactly four digits.
func ValidCardNumber(candidate string) bool {
	ok, err := cardShape.MatchString(candidate)
	return err == nil && ok
}

func formatCard(m *regexp2.Match) (string, bool) {
	raw, ok := lastGroup(m)
	if !ok {
		return "", false
	}
	candidate := CorrectOCRDigits(raw)
	return candidate, ValidCardNumber(candidate)
}
