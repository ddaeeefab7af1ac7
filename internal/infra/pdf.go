package infra

// pdf.go — cash-cut report generation using go-pdf/fpdf.
// Renders an A5 summary of a reconciliation record:
//   - store name and cut type header
//   - window, terminal, operator
//   - per-payment-method totals
//   - expected / counted / difference for both currencies
// The output file is saved to storagePath/cut_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"lunapos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateCutPDF renders a cash cut into a PDF report.
// storagePath is created if needed; returns the absolute file path.
func GenerateCutPDF(cut *model.CashCut, storeName, storeCurrency, foreignCurrency, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("cut_%s.pdf", cut.ID))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	title := "Shift Cash Cut"
	if cut.CutType == model.CutDay {
		title = "Day Close — Store-wide Cash Cut"
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, storeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, title, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	terminalName := cut.TerminalID.String()
	if cut.Terminal != nil {
		terminalName = cut.Terminal.Name
	}
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Terminal: %s", terminalName), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Operator: %s", cut.StaffName), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Window: %s — %s",
		cut.StartTime.Format("02/01/2006 15:04"),
		cut.EndTime.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	labelW := contentW * 0.6
	valueW := contentW * 0.4

	row := func(label string, value decimal.Decimal, currency string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, fmt.Sprintf("%s %s", value.StringFixed(2), currency), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Sales: %d", cut.SalesCount), "", 1, "L", false, 0, "")

	row("Sales total", cut.SalesTotal, storeCurrency, false)
	row("Cash", cut.CashTotal, storeCurrency, false)
	row("Card", cut.CardTotal, storeCurrency, false)
	row("Transfer", cut.TransferTotal, storeCurrency, false)
	row("Opening fund", cut.OpeningFund, storeCurrency, false)
	pdf.Ln(2)

	row("Expected cash", cut.ExpectedCash, storeCurrency, true)
	row("Counted cash", cut.ActualCash, storeCurrency, false)
	row("Difference", cut.Difference, storeCurrency, true)
	pdf.Ln(2)

	row(fmt.Sprintf("Expected %s", foreignCurrency), cut.ExpectedForeign, foreignCurrency, true)
	row(fmt.Sprintf("Counted %s", foreignCurrency), cut.ActualForeign, foreignCurrency, false)
	row("Difference", cut.DifferenceForeign, foreignCurrency, true)

	if cut.Notes != nil && *cut.Notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Notes: "+*cut.Notes, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
