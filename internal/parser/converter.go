// Package parser turns uploaded documents into plain text.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"interview-assistant/internal/config"
	"interview-assistant/internal/logger"

	"github.com/rs/zerolog"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var extensionMimeTypes = map[string]string{
	".pdf":  MimePDF,
	".doc":  MimeDOC,
	".docx": MimeDOCX,
	".txt":  MimeText,
}

// MimeTypeForFile guesses a document MIME type from the file extension.
// Unknown extensions yield "application/octet-stream".
func MimeTypeForFile(filename string) string {
	if m, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	return "application/octet-stream"
}

// PDFTextExtractor is the in-process PDF backend. The metadata map may carry
// "page_count".
type PDFTextExtractor interface {
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]any, error)
}

// Backend names reported in Conversion.Backend.
const (
	BackendText = "text"
	BackendPDF  = "pdf"
	BackendTika = "tika"
)

// Conversion is the text of a document plus what the backend learned about
// it. PageCount is 0 and ContentType empty when the backend did not say.
type Conversion struct {
	Text        string
	Backend     string
	PageCount   int
	ContentType string
}

// Document is one conversion request.
type Document struct {
	Filename string
	MimeType string
	Data     []byte
}

// Converter dispatches documents to a backend by MIME type. A nil tika
// backend means Word documents are rejected.
type Converter struct {
	pdf    PDFTextExtractor
	tika   *TikaExtractor
	logger zerolog.Logger
}

// NewConverter wires the backends selected by cfg. With type "tika" every
// supported format goes through Tika; otherwise PDFs use Eino.
func NewConverter(ctx context.Context, cfg config.ParserConfig) (*Converter, error) {
	c := &Converter{logger: logger.Component("parser")}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.TikaServerURL != "" {
		c.tika = NewTikaExtractor(cfg.TikaServerURL, WithTimeout(timeout), WithMetadata(cfg.TikaMetadata))
	}
	if strings.EqualFold(cfg.Type, "tika") {
		if c.tika == nil {
			return nil, fmt.Errorf("tika parser selected without tika_server_url")
		}
		return c, nil
	}

	eino, err := NewEinoPDFTextExtractor(ctx, WithEinoTimeout(timeout))
	if err != nil {
		return nil, err
	}
	c.pdf = eino
	return c, nil
}

// NewConverterWith builds a converter from explicit backends; either may be nil.
func NewConverterWith(pdf PDFTextExtractor, tika *TikaExtractor) *Converter {
	return &Converter{pdf: pdf, tika: tika, logger: logger.Component("parser")}
}

// Convert converts doc to text. Every failure is a *DocumentConversionError.
func (c *Converter) Convert(ctx context.Context, doc Document) (Conversion, error) {
	mimeType := normalizeMime(doc.MimeType)
	fail := func(err error) (Conversion, error) {
		c.logger.Warn().Err(err).Str("mime_type", mimeType).Str("file", doc.Filename).Msg("document conversion failed")
		return Conversion{}, &DocumentConversionError{MimeType: mimeType, Filename: doc.Filename, Err: err}
	}
	if len(doc.Data) == 0 {
		return fail(ErrEmptyDocument)
	}

	switch mimeType {
	case MimeText:
		if !utf8.Valid(doc.Data) {
			return fail(fmt.Errorf("text is not valid UTF-8"))
		}
		return Conversion{Text: string(doc.Data), Backend: BackendText, ContentType: MimeText}, nil

	case MimePDF:
		if c.pdf != nil {
			text, meta, err := c.pdf.ExtractTextFromReader(ctx, bytes.NewReader(doc.Data), doc.Filename)
			if err != nil {
				return fail(err)
			}
			return Conversion{Text: text, Backend: BackendPDF, PageCount: pageCount(meta, "page_count"), ContentType: MimePDF}, nil
		}
		return c.viaTika(ctx, doc, mimeType, fail)

	case MimeDOC, MimeDOCX:
		return c.viaTika(ctx, doc, mimeType, fail)
	}
	return fail(fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType))
}

func (c *Converter) viaTika(ctx context.Context, doc Document, mimeType string, fail func(error) (Conversion, error)) (Conversion, error) {
	if c.tika == nil {
		return fail(fmt.Errorf("%w: %s needs a tika server", ErrUnsupportedType, mimeType))
	}
	text, meta, err := c.tika.ExtractTextFromBytes(ctx, doc.Data, doc.Filename, mimeType)
	if err != nil {
		return fail(err)
	}
	conv := Conversion{Text: text, Backend: BackendTika, ContentType: mimeType}
	if ct, ok := meta[tikaContentType].(string); ok && ct != "" {
		conv.ContentType = normalizeMime(ct)
	}
	conv.PageCount = pageCount(meta, tikaPageCount, tikaWordPageCount)
	return conv, nil
}

// pageCount reads the first usable count among keys. Tika reports numbers as
// strings or single-element arrays depending on the parser.
func pageCount(meta map[string]any, keys ...string) int {
	for _, k := range keys {
		v := meta[k]
		if arr, ok := v.([]any); ok && len(arr) > 0 {
			v = arr[0]
		}
		switch n := v.(type) {
		case int:
			if n > 0 {
				return n
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i > 0 {
				return i
			}
		}
	}
	return 0
}

func normalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}
