package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tikaText = "Jane Doe\njane@doe.dev\nSenior Backend Developer"

// createMockTikaServer answers /tika with fixed text and /meta with JSON metadata.
func createMockTikaServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "expected PUT", http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/tika":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(tikaText))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"Content-Type": "application/pdf",
				"pdf:PDFVersion": "1.5",
				"meta:author": "Jane Doe",
				"dc:title": "Résumé",
				"X-TIKA:Parsed-By": "org.apache.tika.parser.DefaultParser",
				"xmpTPg:NPages": 2
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewTikaExtractor(t *testing.T) {
	e := NewTikaExtractor("http://localhost:9998/")
	assert.Equal(t, "http://localhost:9998", e.ServerURL)
	assert.Equal(t, 60*time.Second, e.Client.Timeout)
	assert.True(t, e.extractMetadata)

	custom := NewTikaExtractor("http://tika", WithMetadata(false), WithTimeout(30*time.Second))
	assert.False(t, custom.extractMetadata)
	assert.Equal(t, 30*time.Second, custom.Client.Timeout)
}

func TestTikaMetadataOptions(t *testing.T) {
	server := createMockTikaServer(t)
	ctx := context.Background()
	data := []byte("%PDF-1.5\nnot really a pdf\n")

	text, meta, err := NewTikaExtractor(server.URL, WithMetadata(false)).
		ExtractTextFromBytes(ctx, data, "cv.pdf", MimePDF)
	require.NoError(t, err)
	assert.Equal(t, tikaText, text)
	assert.Contains(t, meta, "extraction_time")
	assert.Contains(t, meta, "processing_duration_ms")
	assert.NotContains(t, meta, "pdf:PDFVersion")

	_, meta, err = NewTikaExtractor(server.URL).ExtractTextFromBytes(ctx, data, "cv.pdf", MimePDF)
	require.NoError(t, err)
	assert.Contains(t, meta, "pdf:PDFVersion")
	assert.Equal(t, float64(2), meta["xmpTPg:NPages"])
	assert.Equal(t, "application/pdf", meta["Content-Type"])
	assert.Equal(t, "Résumé", meta["dc:title"])
	assert.NotContains(t, meta, "X-TIKA:Parsed-By")
	assert.NotContains(t, meta, "meta:author")
}

func TestTikaRequestHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	e := NewTikaExtractor(server.URL, WithMetadata(false))
	_, _, err := e.ExtractTextFromBytes(context.Background(), []byte("x"), "cv.doc", MimeDOC)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "text/plain; charset=utf-8", got.Get("Accept"))
	assert.Equal(t, "utf-8", got.Get("Accept-Charset"))
	assert.Equal(t, MimeDOC, got.Get("Content-Type"))
	assert.Equal(t, "cv.doc", got.Get("X-Tika-Resource-Name"))
}

func TestTikaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, _, err := NewTikaExtractor(server.URL).ExtractTextFromBytes(context.Background(), []byte("x"), "cv.pdf", MimePDF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTikaMetadataFailureKeepsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta" {
			_, _ = w.Write([]byte("not json"))
			return
		}
		_, _ = w.Write([]byte("body text"))
	}))
	defer server.Close()

	text, meta, err := NewTikaExtractor(server.URL).ExtractTextFromBytes(context.Background(), []byte("x"), "cv.pdf", MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "body text", text)
	assert.Contains(t, meta, "text_length")
}
