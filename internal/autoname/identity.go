package autoname

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
)

// Identity classifies a document and selects its field order.
type Identity string

const (
	IdentityInvoice  Identity = "Invoice"
	IdentityCard     Identity = "Card"
	IdentityPurchase Identity = "Purchase"
)

// Identities lists the known identity tags.
var Identities = []Identity{IdentityInvoice, IdentityCard, IdentityPurchase}

// ParseIdentity matches a tag case-insensitively against the known identities.
func ParseIdentity(s string) (Identity, bool) {
	for _, id := range Identities {
		if strings.EqualFold(strings.TrimSpace(s), string(id)) {
			return id, true
		}
	}
	return "", false
}

// MaxFieldSlots is the number of slots in a field order.
const MaxFieldSlots = 4

// FieldOrder is the ordered list of fields that make up a filename.
// FieldNone entries are blank slots.
type FieldOrder []extract.FieldKind

// ParseFieldOrder converts configured field names into a FieldOrder.
func ParseFieldOrder(names []string) (FieldOrder, error) {
	if len(names) > MaxFieldSlots {
		return nil, fmt.Errorf("field order has %d slots, at most %d allowed", len(names), MaxFieldSlots)
	}

	order := make(FieldOrder, 0, len(names))
	for _, name := range names {
		kind, ok := extract.ParseFieldKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		order = append(order, kind)
	}
	return order, nil
}

// Names returns the configured labels, "" for blank slots.
func (o FieldOrder) Names() []string {
	names := make([]string, len(o))
	for i, k := range o {
		names[i] = k.String()
	}
	return names
}

// FieldOrders holds one field order per identity.
type FieldOrders map[Identity]FieldOrder

// DefaultFieldOrders returns company, date and the identity's number field.
func DefaultFieldOrders() FieldOrders {
	return FieldOrders{
		IdentityInvoice:  {extract.FieldCompany, extract.FieldDate, extract.FieldInvoiceNumber, extract.FieldNone},
		IdentityCard:     {extract.FieldCompany, extract.FieldDate, extract.FieldCardNumber, extract.FieldNone},
		IdentityPurchase: {extract.FieldCompany, extract.FieldDate, extract.FieldInvoiceNumber, extract.FieldNone},
	}
}

// For returns the order for id, falling back to the Invoice order.
func (fo FieldOrders) For(id Identity) FieldOrder {
	if order, ok := fo[id]; ok {
		return order
	}
	return fo[IdentityInvoice]
}
