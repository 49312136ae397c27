package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolAutonameFiles       = "autoname_files"
	ToolAutonamePreview     = "autoname_preview"
	ToolAutonameSetIdentity = "autoname_set_identity"
	ToolAutonameServerInfo  = "autoname_server_info"
)

const (
	AutonameFilesDescription = `Rename PDF documents after the company, date and invoice or card number found in their text.

**When to use:** A folder holds scanned or downloaded invoices, card receipts or purchase orders with meaningless names like scan0001.pdf.

**Why it's useful:** Reads the text layer (with OCR for scans), finds the vendor from the company dictionary, the transaction date, the invoice number and the last four card digits, then renames the file and records the fields as PDF metadata.

**Examples:**
• Name a whole folder: "Rename every PDF in /scans/2024-03"
• Name selected files: "Rename scan0001.pdf and scan0002.pdf in /scans"
• Check first: "Show what autoname_files would do in /scans with dry_run set"

**Common workflows:**
1. Tag receipts: autoname_set_identity (Card) → autoname_files
2. Review then apply: autoname_preview → autoname_files

**Best practices:** Files already carrying their computed name are left alone, so running twice is safe. Name collisions get a " (n)" suffix.`

	AutonamePreviewDescription = `Show the fields found in PDF documents and the name each one would get, without changing anything.

**When to use:** Before renaming, to check that the company dictionary and field order produce the expected names.

**Why it's useful:** Lists company, date, invoice number and card number per document, the identity used to order them and the planned filename.

**Examples:**
• "Preview naming for all PDFs in /scans"
• "Which fields are found in receipt.pdf?"

**Best practices:** Extracted text is cached, so an autoname_files call right after a preview does not repeat OCR.`

	AutonameSetIdentityDescription = `Mark a PDF as an Invoice, Card or Purchase document.

**When to use:** Before naming card receipts or purchase orders, whose filenames use a different field order than invoices.

**Why it's useful:** Stores the identity in the document's own metadata (/Identity), so later runs name it consistently. Documents without an identity are treated as invoices.

**Examples:**
• "Mark receipt-visa.pdf as a Card document"
• "Set identity Purchase on po-1234.pdf"`

	AutonameServerInfoDescription = `Report the server name and version, the default directory, whether OCR tools are installed, the configured field orders and the size of the company dictionary.

**When to use:** First call in a session, or when naming results look wrong and the configuration needs checking.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolAutonameFiles:       AutonameFilesDescription,
	ToolAutonamePreview:     AutonamePreviewDescription,
	ToolAutonameSetIdentity: AutonameSetIdentityDescription,
	ToolAutonameServerInfo:  AutonameServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
