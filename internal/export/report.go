package export

import (
	"fmt"
	"io"
	"strings"

	"interview-assistant/internal/interview"
	"interview-assistant/internal/types"

	"github.com/jung-kurt/gofpdf"
)

// PDFContentType is the MIME type of InterviewReport output.
const PDFContentType = "application/pdf"

type reportWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (r *reportWriter) heading(text string) {
	r.pdf.Ln(3)
	r.pdf.SetFont("Helvetica", "B", 13)
	r.pdf.CellFormat(0, 8, r.tr(text), "B", 1, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 11)
	r.pdf.Ln(1)
}

func (r *reportWriter) field(label, value string) {
	if value == "" {
		return
	}
	r.pdf.SetFont("Helvetica", "B", 11)
	r.pdf.CellFormat(40, 6, r.tr(label), "", 0, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 11)
	r.pdf.MultiCell(0, 6, r.tr(value), "", "L", false)
}

func (r *reportWriter) paragraph(text string) {
	r.pdf.MultiCell(0, 5, r.tr(text), "", "L", false)
}

func (r *reportWriter) bullets(items []string) {
	for _, it := range items {
		r.paragraph("- " + it)
	}
}

func formatScore(s *float64) string {
	if s == nil {
		return "not scored"
	}
	return fmt.Sprintf("%.1f / 10", *s)
}

// InterviewReport renders a one-document summary of iv to w. The candidate
// reference must be loaded for the candidate block to appear.
func InterviewReport(w io.Writer, iv *types.Interview) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Interview Report", true)
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()
	r := &reportWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.tr("Interview Report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)

	if c := iv.Candidate; c != nil {
		r.heading("Candidate")
		r.field("Name", c.Name)
		r.field("Email", c.Email)
		r.field("Applied for", c.Position)
	}

	r.heading("Schedule")
	r.field("Position", iv.Position)
	r.field("Interviewer", strings.TrimSpace(iv.Interviewer.Name+" "+iv.Interviewer.Email))
	r.field("Scheduled", iv.ScheduledAt.UTC().Format("2006-01-02 15:04 MST"))
	r.field("Type", string(iv.Type))
	r.field("Status", string(iv.Status))
	r.field("Planned", fmt.Sprintf("%d min", iv.Duration))
	if m, ok := interview.ActualDuration(*iv); ok {
		r.field("Actual", fmt.Sprintf("%d min", m))
	}

	if len(iv.Questions) > 0 {
		r.heading("Questions")
		for i, q := range iv.Questions {
			r.paragraph(fmt.Sprintf("%d. [%s, %s] %s", i+1, q.Type, q.Difficulty, q.Question))
		}
	}

	r.heading("Evaluations")
	if len(iv.Evaluations) == 0 {
		r.paragraph("No evaluations recorded.")
	}
	for _, e := range iv.Evaluations {
		line := fmt.Sprintf("%s: %.1f", e.Criteria, e.Score)
		if e.Notes != "" {
			line += " (" + e.Notes + ")"
		}
		r.paragraph(line)
	}
	r.field("Overall score", formatScore(iv.OverallScore))

	if fb := iv.Feedback; fb != nil {
		r.heading("Feedback")
		r.field("Recommendation", fb.Recommendation)
		if len(fb.Strengths) > 0 {
			r.paragraph("Strengths:")
			r.bullets(fb.Strengths)
		}
		if len(fb.Improvements) > 0 {
			r.paragraph("Improvements:")
			r.bullets(fb.Improvements)
		}
		if fb.Notes != "" {
			r.paragraph(fb.Notes)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
