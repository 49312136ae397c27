package autoname

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrInvalidDirectory is returned when the target directory is missing
	// or is not a directory.
	ErrInvalidDirectory = errors.New("invalid target directory")

	// ErrCollisionExhausted is returned when every numbered variant of a
	// filename up to the collision limit is taken.
	ErrCollisionExhausted = errors.New("collision counter exhausted")

	// ErrUnknownIdentity is returned when an identity tag is not one of
	// Invoice, Card or Purchase.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// ErrorType classifies a per-document failure.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidInput
	ErrorTypeMetadata
	ErrorTypeCollision
	ErrorTypeRename
	ErrorTypeInternal
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeMetadata:
		return "METADATA"
	case ErrorTypeCollision:
		return "COLLISION"
	case ErrorTypeRename:
		return "RENAME"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// DocumentError records why one document of a batch was not renamed.
type DocumentError struct {
	Type ErrorType
	Path string
	Op   string
	Err  error
}

func newDocumentError(t ErrorType, path, op string, err error) *DocumentError {
	return &DocumentError{Type: t, Path: path, Op: op, Err: err}
}

// Error implements the error interface
func (e *DocumentError) Error() string {
	return fmt.Sprintf("[%s] %s %s: %v", e.Type, e.Op, filepath.Base(e.Path), e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}
