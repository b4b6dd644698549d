package polist

import (
	"fmt"
	"io"

	"github.com/digitradex/trade-console/internal/models"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"PO No.", "顧客", "担当", "出荷手配", "製品名称", "数量", "単価", "金額", "組織", "揚げ地", "メモ",
}

// ExportXLSX writes the expanded rows to an xlsx workbook. Every row goes
// out, main and product rows alike, in display order.
func ExportXLSX(rows []models.POListRow, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "PO一覧"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.PONumber,
			row.Customer,
			row.Manager,
			row.Status,
			row.ProductName,
			row.Quantity,
			row.UnitPrice,
			row.Amount,
			row.Organization,
			row.Destination,
			row.Memo,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
