// Package export renders candidates and interviews as downloadable files.
package export

import (
	"fmt"
	"io"
	"strings"

	"interview-assistant/internal/types"

	"github.com/xuri/excelize/v2"
)

const candidatesSheet = "Candidates"

// XLSXContentType is the MIME type of CandidatesXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var candidateColumns = []struct {
	title string
	width float64
}{
	{"Name", 24},
	{"Email", 30},
	{"Phone", 18},
	{"Position", 24},
	{"Experience", 14},
	{"Skills", 40},
	{"Status", 14},
	{"Average Score", 14},
	{"Created", 20},
}

// CandidatesXLSX writes one row per candidate to w.
func CandidatesXLSX(w io.Writer, candidates []types.Candidate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", candidatesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range candidateColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(candidatesSheet, name, name, col.width); err != nil {
			return err
		}
		if err := f.SetCellValue(candidatesSheet, name+"1", col.title); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(candidateColumns))
	if err := f.SetCellStyle(candidatesSheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, c := range candidates {
		var score any = ""
		if c.AverageScore != nil {
			score = *c.AverageScore
		}
		row := []any{
			c.Name,
			c.Email,
			c.Phone,
			c.Position,
			c.Experience,
			strings.Join(c.Skills, ", "),
			string(c.Status),
			score,
			c.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(candidatesSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(candidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
