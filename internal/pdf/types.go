package pdf

import "context"

// FileInfo describes a PDF found in a target directory.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// TextExtractor produces the raw text of a document. Implementations return
// an error when they cannot read the document at all and an empty string
// when it simply carries no text.
type TextExtractor interface {
	Name() string
	ExtractText(ctx context.Context, path string) (string, error)
}
