package config

import (
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompanyMapKeepsOrder(t *testing.T) {
	data := []byte(`{
  "company_map": {
    "zeta, zeta corp": "Zeta",
    "acme,acme corp,": "Acme",
    "globex": "Globex",
    " , ": "Nobody"
  }
}`)

	dict, err := ParseCompanyMap(data)
	require.NoError(t, err)
	assert.Equal(t, extract.Dictionary{
		{Name: "Zeta", Keywords: []string{"zeta", "zeta corp"}},
		{Name: "Acme", Keywords: []string{"acme", "acme corp"}},
		{Name: "Globex", Keywords: []string{"globex"}},
	}, dict)
}

func TestParseCompanyMapWithoutWrapper(t *testing.T) {
	dict, err := ParseCompanyMap([]byte("initech: Initech\nhooli,hooli xyz: Hooli\n"))
	require.NoError(t, err)
	require.Len(t, dict, 2)
	assert.Equal(t, "Initech", dict[0].Name)
	assert.Equal(t, []string{"hooli", "hooli xyz"}, dict[1].Keywords)
}

func TestParseCompanyMapErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"list at top level", `["acme"]`},
		{"wrapper is not a mapping", `{"company_map": ["acme"]}`},
		{"name is not a string", `{"company_map": {"acme": ["Acme"]}}`},
		{"malformed", `{"company_map": {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCompanyMap([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseCompanyMapEmpty(t *testing.T) {
	dict, err := ParseCompanyMap(nil)
	require.NoError(t, err)
	assert.Empty(t, dict)
}

func TestLoadCompanyMap(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "company_map.json", `{"company_map": {"acme": "Acme"}}`)

	dict, err := LoadCompanyMap(path)
	require.NoError(t, err)
	assert.Equal(t, extract.Dictionary{{Name: "Acme", Keywords: []string{"acme"}}}, dict)

	_, err = LoadCompanyMap(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
