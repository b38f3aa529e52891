package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/samuelmt/detran-fines/dto"
)

// SheetName is the single sheet every export writes.
const SheetName = "Resultado DETRAN"

var columnHeaders = []string{
	"Placa",
	"#",
	"AIT",
	"AIT Originária",
	"Motivo",
	"Data Infração",
	"Data Vencimento",
	"Valor",
	"Valor a Pagar",
	"Órgão Autuador",
	"Código de pagamento em barra",
}

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 12}, {"B", 5}, {"C", 15}, {"D", 18}, {"E", 55}, {"F", 14},
	{"G", 16}, {"H", 16}, {"I", 18}, {"J", 20}, {"K", 55},
}

// Long-text columns (Motivo, Código de pagamento) are left-aligned and
// wrapped; everything else is centered.
var leftAlignedColumns = map[int]bool{5: true, 11: true}

// ExportService writes fine records to a styled xlsx file and reads them
// back. The output path is always an explicit parameter.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) Export(records []dto.FineRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, centerStyle, leftStyle, err := buildStyles(f)
	if err != nil {
		return err
	}

	for col, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "K1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, record := range records {
		row := i + 2
		values := []interface{}{
			record.Plate,
			record.Sequence,
			record.AIT,
			record.AITOriginating,
			record.Description,
			record.InfractionDate,
			record.DueDate,
			record.Amount,
			record.AmountPayable,
			record.IssuingAgency,
			record.PaymentBarcode,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			style := centerStyle
			if leftAlignedColumns[col+1] {
				style = leftStyle
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return fmt.Errorf("failed to style row %d: %w", row, err)
			}
		}
	}

	for _, cw := range columnWidths {
		if err := f.SetColWidth(SheetName, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

// Read loads an exported spreadsheet back into records.
func (s *ExportService) Read(path string) ([]dto.FineRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []dto.FineRecord
	for _, row := range rows[1:] {
		// Trailing empty cells are trimmed by excelize.
		cells := make([]string, len(columnHeaders))
		copy(cells, row)

		sequence, _ := strconv.Atoi(cells[1])
		records = append(records, dto.FineRecord{
			Plate:          cells[0],
			Sequence:       sequence,
			AIT:            cells[2],
			AITOriginating: cells[3],
			Description:    cells[4],
			InfractionDate: cells[5],
			DueDate:        cells[6],
			Amount:         cells[7],
			AmountPayable:  cells[8],
			IssuingAgency:  cells[9],
			PaymentBarcode: cells[10],
		})
	}
	return records, nil
}

func buildStyles(f *excelize.File) (header, center, left int, err error) {
	thinBorder := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: thinBorder,
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to build header style: %w", err)
	}

	center, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to build center style: %w", err)
	}

	left, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
		Border: thinBorder,
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to build left style: %w", err)
	}

	return header, center, left, nil
}
