package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFName(t *testing.T) {
	assert.Equal(t, "/Company", pdfName("Company"))
	assert.Equal(t, "/Company", pdfName("/Company"))
}

func TestMetadataStore_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf at all"), 0o600))
	missing := filepath.Join(dir, "missing.pdf")

	store := NewMetadataStore()

	_, err := store.Identity(missing)
	assert.Error(t, err)

	_, err = store.Properties(broken)
	assert.Error(t, err)

	err = store.WriteProperties(missing, map[string]string{"/Company": "Acme"})
	assert.Error(t, err)

	err = store.SetIdentity(broken, "Card")
	assert.Error(t, err)

	data, err := os.ReadFile(broken)
	require.NoError(t, err)
	assert.Equal(t, "not a pdf at all", string(data), "a failed write must leave the file untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")
}

func TestMetadataStore_WriteNothing(t *testing.T) {
	store := NewMetadataStore()
	assert.NoError(t, store.WriteProperties(filepath.Join(t.TempDir(), "missing.pdf"), nil))
}

func TestMetadataStore_MergesProperties(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "scan001.pdf", []string{"acme invoice no: 778899"}, map[string]string{"Custom": "keepme"})

	store := NewMetadataStore()

	props, err := store.Properties(path)
	require.NoError(t, err)
	assert.Equal(t, "keepme", props["/Custom"])

	identity, err := store.Identity(path)
	require.NoError(t, err)
	assert.Empty(t, identity)

	require.NoError(t, store.SetIdentity(path, "Card"))
	require.NoError(t, store.WriteProperties(path, map[string]string{
		"/Company":       "Acme",
		"/InvoiceNumber": "778899",
	}))

	props, err = store.Properties(path)
	require.NoError(t, err)
	assert.Equal(t, "keepme", props["/Custom"])
	assert.Equal(t, "Card", props["/Identity"])
	assert.Equal(t, "Acme", props["/Company"])
	assert.Equal(t, "778899", props["/InvoiceNumber"])

	identity, err = store.Identity(path)
	require.NoError(t, err)
	assert.Equal(t, "Card", identity)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")

	text, err := NewReader(1024*1024, 0).ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "acme invoice no: 778899", "the page must survive the rewrite")
}
