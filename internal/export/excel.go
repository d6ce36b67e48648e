package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

const sheetName = "Viaticos"

// BuildWorkbook renders an approved expense request as an xlsx workbook:
// a header block with the request identity, one row per expense detail, and a
// total row.
func BuildWorkbook(req *entity.ExpenseRequest, costCenter *entity.CostCenter, worker *entity.Worker, companyName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	// Header block
	setCell(f, "A1", companyName)
	setCell(f, "A2", "Travel Expense Reimbursement")
	setCell(f, "A4", "Ticket")
	setCell(f, "B4", req.TicketNumber)
	setCell(f, "A5", "Emission date")
	setCell(f, "B5", req.EmissionDate.Format("2006-01-02"))
	setCell(f, "A6", "Cost center")
	if costCenter != nil {
		setCell(f, "B6", fmt.Sprintf("%s - %s", costCenter.Code, costCenter.Name))
	} else {
		setCell(f, "B6", req.CostCenterCode)
	}
	setCell(f, "A7", "Worker")
	if worker != nil {
		setCell(f, "B7", worker.FullName())
	}
	setCell(f, "A8", "State")
	setCell(f, "B8", req.State)

	// Detail table
	headerRow := 10
	headers := []string{"Date", "Destination", "Category", "Description", "Day rate", "Days", "Subtotal"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		setCell(f, cell, h)
	}

	row := headerRow + 1
	for _, detail := range req.Details {
		values := []interface{}{
			detail.Date.Format("2006-01-02"),
			detail.Destination,
			detail.Category,
			detail.Description,
			detail.DayRate.InexactFloat64(),
			detail.DayCount,
			detail.Subtotal().InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			setCell(f, cell, v)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(6, row+1)
	totalCell, _ := excelize.CoordinatesToCellName(7, row+1)
	setCell(f, totalLabel, "Total")
	setCell(f, totalCell, req.SpentValue.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, cell string, value interface{}) {
	// Cell coordinates are generated above; a set failure here would mean a
	// corrupt workbook, surfaced at WriteToBuffer.
	_ = f.SetCellValue(sheetName, cell, value)
}
