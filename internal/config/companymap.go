package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"gopkg.in/yaml.v3"
)

const companyMapKey = "company_map"

// LoadCompanyMap reads a company map file of the form
//
//	{"company_map": {"acme,acme corp": "Acme", "globex": "Globex"}}
//
// Keys are comma separated keyword lists. Entries keep their order in the
// file, which is the match priority. A document without the company_map
// wrapper is read as the mapping itself.
func LoadCompanyMap(path string) (extract.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company map: %w", err)
	}
	dict, err := ParseCompanyMap(data)
	if err != nil {
		return nil, fmt.Errorf("company map %s: %w", path, err)
	}
	return dict, nil
}

// ParseCompanyMap decodes company map content. JSON is accepted as YAML.
func ParseCompanyMap(data []byte) (extract.Dictionary, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("expected a mapping at the top level")
	}
	if inner := mappingValue(root, companyMapKey); inner != nil {
		root = inner
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must be a mapping", companyMapKey)
	}

	dict := make(extract.Dictionary, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: company name must be a string", value.Line)
		}

		var keywords []string
		for _, kw := range strings.Split(key.Value, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 || strings.TrimSpace(value.Value) == "" {
			continue
		}
		dict = append(dict, extract.CompanyEntry{Name: strings.TrimSpace(value.Value), Keywords: keywords})
	}
	return dict, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
