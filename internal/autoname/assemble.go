package autoname

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
)

// DefaultCollisionLimit caps the " (n)" counter used to find a free name.
const DefaultCollisionLimit = 10000

// Assembly is the naming decision for one document.
type Assembly struct {
	// Name is the new base name, without extension.
	Name  string
	Parts []string
	// Metadata maps custom document-info keys such as "/InvoiceNumber" to
	// field values.
	Metadata map[string]string
}

// Filename returns Name with the .pdf extension.
func (a Assembly) Filename() string {
	return a.Name + ".pdf"
}

var unsafeFilenameChars = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// Assemble lays out the available fields in the configured order. Blank
// slots and fields without a value are skipped. The boolean is false when
// no part is available or the result equals the current base name, which
// makes re-running on a correctly named file a no-op.
func Assemble(currentName string, available map[extract.FieldKind]string, order FieldOrder) (Assembly, bool) {
	asm := Assembly{Metadata: map[string]string{}}

	for _, kind := range order {
		if kind == extract.FieldNone {
			continue
		}
		value := strings.TrimSpace(available[kind])
		if value == "" {
			continue
		}
		asm.Parts = append(asm.Parts, unsafeFilenameChars.Replace(value))
		asm.Metadata[kind.MetadataKey()] = value
	}

	if card := strings.TrimSpace(available[extract.FieldCardNumber]); card != "" {
		asm.Metadata[extract.FieldCardNumber.MetadataKey()] = card
	}

	if len(asm.Parts) == 0 {
		return asm, false
	}

	asm.Name = strings.Join(asm.Parts, " ")
	if asm.Name == baseName(currentName) {
		return asm, false
	}
	return asm, true
}

// baseName returns the whitespace-normalized filename without extension.
func baseName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Join(strings.Fields(base), " ")
}

// ResolveCollision returns the first free path for name in dir, trying
// "name.pdf", then "name (1).pdf", "name (2).pdf" and so on. A candidate
// equal to source counts as free. The check and the later rename are not
// atomic against concurrent writers.
func ResolveCollision(dir, name, source string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultCollisionLimit
	}

	candidate := filepath.Join(dir, name+".pdf")
	for counter := 1; exists(candidate) && !samePath(candidate, source); counter++ {
		if counter > limit {
			return "", fmt.Errorf("%w: %q after %d attempts", ErrCollisionExhausted, name, limit)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).pdf", name, counter))
	}
	return candidate, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ai, bi)
}
