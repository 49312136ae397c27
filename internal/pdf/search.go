package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search discovers candidate documents directly inside a target directory.
type Search struct {
	validator *Validator
}

// NewSearch creates a search handler with the given size ceiling.
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

// ListPDFs returns the valid PDFs directly inside directory, sorted by name.
// Subdirectories are not descended since renames stay within the directory.
// A non-empty query keeps only files whose name fuzzily matches it.
func (s *Search) ListPDFs(directory, query string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	entries, err := os.ReadDir(absDirectory)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsPDFName(entry.Name()) {
			continue
		}
		if !matchesQuery(entry.Name(), query) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(absDirectory, entry.Name())
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// matchesQuery performs fuzzy matching on the filename: a substring match,
// or every query word contained in some filename word.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	fileName := strings.ToLower(filename)
	if strings.Contains(fileName, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(fileName, ".pdf"))
	for _, queryWord := range splitIntoWords(query) {
		found := false
		for _, word := range words {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}

// Paths is ListPDFs reduced to absolute paths.
func (s *Search) Paths(directory, query string) ([]string, error) {
	files, err := s.ListPDFs(directory, query)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}
