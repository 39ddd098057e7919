// Package export renders requests as an .xlsx workbook, one row per item.
package export

import (
	"fmt"
	"io"

	"github.com/01moynul/workshop-logistics/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "requests.xlsx"
	SheetName   = "Requests"
)

// Columns is the fixed header row.
var Columns = []string{
	"Request ID", "User Name", "User Email", "Team", "Created At",
	"Item Name", "Description", "Quantity", "Price", "Source", "Sample File",
}

var columnWidths = []float64{10, 20, 25, 20, 20, 20, 30, 10, 10, 20, 30}

// LinkFunc turns a stored filename into an absolute download URL.
type LinkFunc func(filename string) (string, error)

// Rows projects requests into spreadsheet rows, in request order.
// A request without items produces no rows.
func Rows(requests []models.Request, link LinkFunc) ([][]interface{}, error) {
	var rows [][]interface{}
	for _, req := range requests {
		var userName, userEmail, team string
		if req.User != nil {
			userName, userEmail, team = req.User.Name, req.User.Email, req.User.TeamName
		}
		for _, item := range req.Items {
			sample := ""
			if item.SampleFile != nil && *item.SampleFile != "" {
				url, err := link(*item.SampleFile)
				if err != nil {
					return nil, fmt.Errorf("link for %s: %w", *item.SampleFile, err)
				}
				sample = url
			}
			rows = append(rows, []interface{}{
				req.ID, userName, userEmail, team, req.CreatedAt,
				item.Name, item.Description, item.Quantity, item.Price, item.Source, sample,
			})
		}
	}
	return rows, nil
}

// WriteWorkbook writes the complete workbook to w.
func WriteWorkbook(w io.Writer, requests []models.Request, link LinkFunc) error {
	rows, err := Rows(requests, link)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &rows[i]); err != nil {
			return err
		}
	}

	return f.Write(w)
}
