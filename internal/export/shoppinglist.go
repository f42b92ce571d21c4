// Package export renders the aggregated shopping list for download,
// as plain text or as a printable PDF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/sakif/recipe-box/internal/model"
)

// RenderText writes one line per aggregated ingredient:
//
//	flour (g) - 300
//	salt (g) - 5
//
// The repository already orders totals by (name, unit), so the list reads
// like a store aisle checklist.
func RenderText(w io.Writer, totals []model.IngredientTotal) error {
	for _, t := range totals {
		if _, err := fmt.Fprintf(w, "%s (%s) - %d\n", t.Name, t.MeasurementUnit, t.Total); err != nil {
			return fmt.Errorf("export: writing shopping list: %w", err)
		}
	}
	return nil
}

// RenderPDF produces an A4 page with the list as a two-column table.
// Long lists flow onto additional pages automatically.
func RenderPDF(w io.Writer, totals []model.IngredientTotal, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Shopping list")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, generatedAt.Format("2 January 2006"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 8, "Ingredient", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, t := range totals {
		pdf.CellFormat(120, 8, t.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%d %s", t.Total, t.MeasurementUnit), "", 1, "R", false, 0, "")
	}

	if len(totals) == 0 {
		pdf.Cell(0, 8, "Your shopping cart is empty.")
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("export: generating PDF: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("export: writing PDF: %w", err)
	}
	return nil
}
