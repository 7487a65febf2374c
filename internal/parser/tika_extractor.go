package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interview-assistant/internal/logger"

	"github.com/rs/zerolog"
)

// TikaExtractor converts documents through an Apache Tika server. Unlike the
// Eino parser it handles Word documents as well as PDF.
type TikaExtractor struct {
	// ServerURL e.g. http://localhost:9998
	ServerURL string
	Client    *http.Client

	// fetch page count and detected type with a second PUT to /meta
	extractMetadata bool
	logger          zerolog.Logger
}

// TikaOption configures a TikaExtractor.
type TikaOption func(*TikaExtractor)

// WithMetadata toggles the /meta request that supplies page count and
// detected content type.
func WithMetadata(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractMetadata = extract
	}
}

func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaExtractor) {
		if timeout > 0 {
			e.Client.Timeout = timeout
		}
	}
}

// NewTikaExtractor creates a Tika client with metadata enabled.
func NewTikaExtractor(serverURL string, options ...TikaOption) *TikaExtractor {
	extractor := &TikaExtractor{
		ServerURL:       strings.TrimRight(serverURL, "/"),
		Client:          &http.Client{Timeout: 60 * time.Second},
		extractMetadata: true,
		logger:          logger.Component("tika"),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractTextFromBytes returns the plain text of data plus metadata.
func (e *TikaExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri, mimeType string) (string, map[string]any, error) {
	start := time.Now()
	metadata := map[string]any{
		"extraction_time": start.Format(time.RFC3339),
		"source_uri":      uri,
	}

	req, err := e.newRequest(ctx, "/tika", data, uri, mimeType)
	if err != nil {
		return "", metadata, err
	}
	req.Header.Set("Accept", "text/plain; charset=utf-8")
	req.Header.Set("Accept-Charset", "utf-8")

	body, err := e.do(req)
	if err != nil {
		return "", metadata, err
	}
	text := string(body)
	metadata["text_length"] = len(text)
	metadata["processing_duration_ms"] = time.Since(start).Milliseconds()

	if !e.extractMetadata {
		return text, metadata, nil
	}

	raw, err := e.fetchMetadata(ctx, data, uri, mimeType)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Msg("tika metadata extraction failed, keeping base metadata")
		return text, metadata, nil
	}
	for k, v := range raw {
		if isImportantMetadata(k) {
			metadata[k] = v
		}
	}
	return text, metadata, nil
}

func (e *TikaExtractor) fetchMetadata(ctx context.Context, data []byte, uri, mimeType string) (map[string]any, error) {
	req, err := e.newRequest(ctx, "/meta", data, uri, mimeType)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := e.do(req)
	if err != nil {
		return nil, err
	}
	var metadata map[string]any
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("decode tika metadata: %w", err)
	}
	return metadata, nil
}

func (e *TikaExtractor) newRequest(ctx context.Context, path string, data []byte, uri, mimeType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build tika request: %w", err)
	}
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	return req, nil
}

func (e *TikaExtractor) do(req *http.Request) ([]byte, error) {
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tika request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika server returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tika response: %w", err)
	}
	return body, nil
}

// Tika metadata keys read by Conversion.
const (
	tikaPageCount     = "xmpTPg:NPages"
	tikaWordPageCount = "meta:page-count"
	tikaContentType   = "Content-Type"
)

var importantMetadataKeys = map[string]bool{
	tikaPageCount:     true,
	tikaWordPageCount: true,
	tikaContentType:   true,
	"pdf:PDFVersion":  true,
	"dc:title":        true,
	"language":        true,
}

func isImportantMetadata(key string) bool {
	return importantMetadataKeys[key]
}
