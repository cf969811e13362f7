// Package export renders the invoice register as an xlsx workbook for the
// back office.
package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"fieldcrm-billing/internal/storage"
)

type InvoiceStorage interface {
	ListInvoices(ctx context.Context, clientCode string) ([]storage.Invoice, error)
}

type ExcelService struct {
	storage InvoiceStorage
}

func NewExcelService(storage InvoiceStorage) *ExcelService {
	return &ExcelService{storage: storage}
}

func (g *ExcelService) InvoiceRegister(ctx context.Context, clientCode string) ([]byte, error) {
	invoices, err := g.storage.ListInvoices(ctx, clientCode)
	if err != nil {
		return nil, fmt.Errorf("fetch invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Invoice register"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	headers := []string{"Number", "Issue date", "Due date", "Client", "Ticket", "Subtotal", "VAT", "Total", "Holiday", "Status"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for rowIdx, inv := range invoices {
		row := rowIdx + 2
		f.SetCellValue(sheet, cellName(1, row), inv.Number)
		f.SetCellValue(sheet, cellName(2, row), inv.IssueDate.Format("2006-01-02"))
		f.SetCellValue(sheet, cellName(3, row), inv.DueDate.Format("2006-01-02"))
		f.SetCellValue(sheet, cellName(4, row), inv.ClientCode)
		f.SetCellValue(sheet, cellName(5, row), inv.TicketID)
		f.SetCellValue(sheet, cellName(6, row), inv.Subtotal.InexactFloat64())
		f.SetCellValue(sheet, cellName(7, row), inv.VATAmount.InexactFloat64())
		f.SetCellValue(sheet, cellName(8, row), inv.Total.InexactFloat64())
		f.SetCellValue(sheet, cellName(9, row), inv.IsHoliday)
		f.SetCellValue(sheet, cellName(10, row), inv.Status.String())
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
