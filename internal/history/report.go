package history

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"bridgetable/internal/bridge"
)

func contractLabel(rec HandRecord) string {
	if !rec.ContractKnown {
		return "(no contract)"
	}
	return fmt.Sprintf("%d%s by %s", rec.Level, rec.Trump, rec.Declarer)
}

func playsLabel(plays []bridge.Play) string {
	return formatPlays(plays)
}

// BuildSessionPDF renders the session's hand records as a PDF.
func BuildSessionPDF(records []HandRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Bridge Session Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Hands played: %d", len(records)))
	pdf.Ln(8)

	for i, rec := range records {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Hand %d: %s", i+1, contractLabel(rec)))
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("NS %d - EW %d, won by %s team",
			rec.NorthSouth, rec.EastWest, rec.WinningTeam))
		pdf.Ln(6)

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(20, 5, "Trick", "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 5, "Plays", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 5, "Winner", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, trick := range rec.Tricks {
			pdf.CellFormat(20, 5, fmt.Sprintf("%d", trick.Number), "1", 0, "C", false, 0, "")
			pdf.CellFormat(110, 5, playsLabel(trick.Plays), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 5, trick.Winner.String(), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSessionXLSX renders the session's hand records as a workbook:
// one summary sheet plus one sheet per hand.
func BuildSessionXLSX(records []HandRecord) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	f.SetSheetName("Sheet1", summarySheet)

	_ = f.SetCellValue(summarySheet, "A1", "Bridge Session Report")
	_ = f.SetCellValue(summarySheet, "A3", "Hand")
	_ = f.SetCellValue(summarySheet, "B3", "Contract")
	_ = f.SetCellValue(summarySheet, "C3", "NS")
	_ = f.SetCellValue(summarySheet, "D3", "EW")
	_ = f.SetCellValue(summarySheet, "E3", "Winning team")
	_ = f.SetCellValue(summarySheet, "F3", "Finished")

	for i, rec := range records {
		row := i + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), i+1)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), contractLabel(rec))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), rec.NorthSouth)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), rec.EastWest)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), rec.WinningTeam.String())
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("F%d", row), rec.FinishedAt.Format(time.RFC3339))

		handSheet := fmt.Sprintf("hand-%d", i+1)
		f.NewSheet(handSheet)
		_ = f.SetCellValue(handSheet, "A1", "Trick")
		_ = f.SetCellValue(handSheet, "B1", "Plays")
		_ = f.SetCellValue(handSheet, "C1", "Winner")
		for j, trick := range rec.Tricks {
			trickRow := j + 2
			_ = f.SetCellValue(handSheet, fmt.Sprintf("A%d", trickRow), trick.Number)
			_ = f.SetCellValue(handSheet, fmt.Sprintf("B%d", trickRow), playsLabel(trick.Plays))
			_ = f.SetCellValue(handSheet, fmt.Sprintf("C%d", trickRow), trick.Winner.String())
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
