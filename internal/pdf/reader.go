package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultTextLimit is the number of characters after which page extraction
// stops. Header and summary fields live on the first pages.
const DefaultTextLimit = 5000

// Reader extracts the embedded text layer of a PDF page by page.
type Reader struct {
	validator *Validator
	textLimit int
}

// NewReader creates a reader that rejects files above maxFileSize and stops
// once more than textLimit characters were collected.
func NewReader(maxFileSize int64, textLimit int) *Reader {
	if textLimit <= 0 {
		textLimit = DefaultTextLimit
	}
	return &Reader{
		validator: NewValidator(maxFileSize),
		textLimit: textLimit,
	}
}

// Name identifies the extractor in logs.
func (r *Reader) Name() string {
	return "text-layer"
}

// ExtractText returns the concatenated page text, each page followed by a
// space. A blank result is not an error; the caller decides on a fallback.
func (r *Reader) ExtractText(ctx context.Context, path string) (text string, err error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if err := r.validator.ValidateFileInfo(path, fileInfo); err != nil {
		return "", err
	}

	// The text layer parser panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("text layer parse panic: %v", rec)
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return r.extractTextContent(ctx, pdfReader)
}

func (r *Reader) extractTextContent(ctx context.Context, pdfReader *pdf.Reader) (string, error) {
	var builder strings.Builder

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNum, err)
		}
		if content != "" {
			builder.WriteString(content)
			builder.WriteString(" ")
		}

		if builder.Len() > r.textLimit {
			break
		}
	}

	return builder.String(), nil
}
