// Package export renders a document's verified claims as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/verityscan/verityscan/internal/core/domain"
)

const (
	claimsSheet  = "Claims"
	summarySheet = "Summary"
)

var claimsHeader = []string{"ID", "Text", "Category", "Status", "Confidence", "Evidence", "Reasoning"}

// WriteClaimsReport streams a two-sheet workbook: the claim rows and the
// derived summary counters.
func WriteClaimsReport(w io.Writer, doc domain.Document) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), claimsSheet); err != nil {
		return fmt.Errorf("rename claims sheet: %w", err)
	}

	for col, title := range claimsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("claims header cell: %w", err)
		}
		if err := book.SetCellValue(claimsSheet, cell, title); err != nil {
			return fmt.Errorf("write claims header: %w", err)
		}
	}

	for i, claim := range doc.Claims {
		row := i + 2
		values := []any{
			claim.ID,
			claim.Text,
			claim.Category,
			string(claim.Status),
			claim.Confidence,
			claim.Evidence,
			claim.Reasoning,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("claims row cell: %w", err)
			}
			if err := book.SetCellValue(claimsSheet, cell, value); err != nil {
				return fmt.Errorf("write claim row %d: %w", row, err)
			}
		}
	}

	if _, err := book.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	summary := doc.Summary
	if summary == nil {
		summary = &domain.Summary{}
	}
	rows := [][2]any{
		{"Document", doc.Title},
		{"Filename", doc.Filename},
		{"Company", doc.CompanyName},
		{"Total claims", summary.TotalClaims},
		{"Verified", summary.Verified},
		{"Questionable", summary.Questionable},
		{"Unverified", summary.Unverified},
		{"Flagged", summary.Flagged},
	}
	for i, pair := range rows {
		row := i + 1
		if err := book.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), pair[0]); err != nil {
			return fmt.Errorf("write summary label: %w", err)
		}
		if err := book.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), pair[1]); err != nil {
			return fmt.Errorf("write summary value: %w", err)
		}
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
