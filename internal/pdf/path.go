package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file-list entries to one target directory.
type PathValidator struct {
	directory string
	realDir   string
}

// NewPathValidator resolves directory and checks that it exists.
func NewPathValidator(directory string) (*PathValidator, error) {
	if strings.TrimSpace(directory) == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", directory)
	}

	realDir := absDir
	if resolved, err := filepath.EvalSymlinks(absDir); err == nil {
		realDir = resolved
	}

	return &PathValidator{directory: absDir, realDir: realDir}, nil
}

// Directory returns the absolute target directory.
func (v *PathValidator) Directory() string {
	return v.directory
}

// ResolveEntry turns a file-list entry into an absolute path that must be a
// direct child of the target directory. Relative entries are taken relative
// to the directory.
func (v *PathValidator) ResolveEntry(entry string) (string, error) {
	entry = strings.ReplaceAll(entry, "\x00", "")
	if strings.TrimSpace(entry) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(entry) {
		entry = filepath.Join(v.directory, entry)
	}
	absPath := filepath.Clean(entry)

	parent := filepath.Dir(absPath)
	if parent != v.directory && parent != v.realDir {
		return "", fmt.Errorf("path is outside target directory: %s", absPath)
	}

	within, err := v.IsPathWithinDirectory(absPath)
	if err != nil {
		return "", err
	}
	if !within {
		return "", fmt.Errorf("path resolves outside target directory: %s", absPath)
	}

	return absPath, nil
}

// IsPathWithinDirectory checks path, and the target of path when it is a
// symlink, against the target directory.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	return v.contains(cleanPath) && v.contains(realPath), nil
}

func (v *PathValidator) contains(path string) bool {
	for _, dir := range []string{v.directory, v.realDir} {
		withSep := dir
		if !strings.HasSuffix(withSep, string(filepath.Separator)) {
			withSep += string(filepath.Separator)
		}
		if path == dir || strings.HasPrefix(path, withSep) {
			return true
		}
	}
	return false
}
