package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is wrapped when no converter handles the MIME type.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrEmptyDocument is wrapped when the input has no bytes.
	ErrEmptyDocument = errors.New("empty document")
)

// DocumentConversionError reports a document that could not be turned into text.
type DocumentConversionError struct {
	MimeType string
	Filename string
	Err      error
}

func (e *DocumentConversionError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("convert %s (%s): %v", e.Filename, e.MimeType, e.Err)
	}
	return fmt.Sprintf("convert %s document: %v", e.MimeType, e.Err)
}

func (e *DocumentConversionError) Unwrap() error {
	return e.Err
}
