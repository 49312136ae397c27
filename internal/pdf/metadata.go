package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// IdentityKey is the custom document-info key holding the document class.
const IdentityKey = "/Identity"

// MetadataStore reads and merges custom document-info properties with
// pdfcpu. Keys are exchanged in their PDF name form, with a leading slash.
type MetadataStore struct{}

// NewMetadataStore creates a pdfcpu backed metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{}
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Properties returns the custom document-info properties of path.
func (m *MetadataStore) Properties(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	props, err := api.Properties(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("read properties of %s: %w", filepath.Base(path), err)
	}

	out := make(map[string]string, len(props))
	for k, v := range props {
		out[pdfName(k)] = v
	}
	return out, nil
}

// Identity returns the /Identity property, or "" when it is absent.
func (m *MetadataStore) Identity(path string) (string, error) {
	props, err := m.Properties(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(props[IdentityKey]), nil
}

// WriteProperties merges props into the document's custom properties.
// Existing keys not named in props are kept. The file is rewritten through
// a temporary sibling and renamed into place.
func (m *MetadataStore) WriteProperties(path string, props map[string]string) error {
	if len(props) == 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	plain := make(map[string]string, len(props))
	for k, v := range props {
		plain[strings.TrimPrefix(k, "/")] = v
	}

	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(data), &out, plain, relaxedConfig()); err != nil {
		return fmt.Errorf("add properties to %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".autoname-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SetIdentity writes the /Identity property.
func (m *MetadataStore) SetIdentity(path, identity string) error {
	return m.WriteProperties(path, map[string]string{IdentityKey: identity})
}

func pdfName(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	return "/" + key
}
