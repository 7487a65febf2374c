package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"interview-assistant/internal/logger"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// EinoPDFTextExtractor extracts PDF text in-process with the Eino PDF parser.
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	logger  zerolog.Logger
	timeout time.Duration
}

// EinoPDFOption configures an EinoPDFTextExtractor.
type EinoPDFOption func(*EinoPDFTextExtractor)

func WithEinoTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEinoPDFTextExtractor builds an extractor that parses page by page so the
// page count survives; the pages are joined back into one string.
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("create eino pdf parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		logger:  logger.Component("eino_pdf"),
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractTextFromReader parses reader as a PDF. uri only labels the document
// in metadata and logs.
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]any, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	extraMeta := map[string]any{
		"source_uri":      uri,
		"extraction_time": start.Format(time.RFC3339),
	}
	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Dur("elapsed", time.Since(start)).Msg("pdf parse failed")
		return "", nil, fmt.Errorf("eino pdf parser: %w", err)
	}
	if len(docs) == 0 {
		return "", nil, fmt.Errorf("eino pdf parser returned no documents for %s", uri)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}
	text := sb.String()

	metadata := map[string]any{}
	if docs[0].MetaData != nil {
		for k, v := range docs[0].MetaData {
			metadata[k] = v
		}
	}
	for k, v := range extraMeta {
		metadata[k] = v
	}
	metadata["page_count"] = len(docs)
	metadata["text_length"] = len(text)
	metadata["processing_duration_ms"] = time.Since(start).Milliseconds()

	e.logger.Debug().Str("uri", uri).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("pdf text extracted")
	return text, metadata, nil
}
