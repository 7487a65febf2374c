package parser

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePDF renders a one-page document with the given lines.
func samplePDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)
	require.NotNil(t, e.parser)
	assert.Equal(t, 30*time.Second, e.timeout)

	e, err = NewEinoPDFTextExtractor(ctx, WithEinoTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, e.timeout)
}

func TestEinoExtractTextFromReader(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pdf rendering round trip in short mode")
	}
	ctx := context.Background()
	e, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	data := samplePDF(t, "John Smith", "Backend Engineer")
	text, meta, err := e.ExtractTextFromReader(ctx, bytes.NewReader(data), "generated.pdf")
	require.NoError(t, err)

	assert.Contains(t, text, "John Smith")
	assert.Equal(t, "generated.pdf", meta["source_uri"])
	assert.Equal(t, 1, meta["page_count"])
}

func TestEinoRejectsGarbage(t *testing.T) {
	e, err := NewEinoPDFTextExtractor(context.Background())
	require.NoError(t, err)

	_, _, err = e.ExtractTextFromReader(context.Background(), bytes.NewReader([]byte("plainly not a pdf")), "bad.pdf")
	assert.Error(t, err)
}
