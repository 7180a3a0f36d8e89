package fuel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/fuel-station/internal/station"
)

const (
	entriesSheet = "Entries"
	summarySheet = "Summary"

	// ContentTypeXLSX is the MIME type of an exported workbook
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var entryHeaders = []string{
	"Date", "Fuel Type", "Quantity", "Price Per Unit", "Total Cost", "Shift",
	"Machine", "Employee", "Odometer", "Location", "Notes",
}

// ExportName is the download file name for an export taken at now
func ExportName(period station.Period, now time.Time) string {
	return fmt.Sprintf("fuel-%s-%s.xlsx", period, now.Format("20060102_150405"))
}

// Export builds an XLSX workbook with the owner's entries for the period on one sheet and
// their stats on another
func (s *Service) Export(ctx context.Context, owner string, period station.Period) ([]byte, error) {
	entries, err := s.list(ctx, station.FuelFilter{
		UserID: owner,
		Since:  period.Since(s.timeSource.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("exporting fuel entries: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return nil, fmt.Errorf("naming entries sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("creating summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := writeEntries(f, headerStyle, entries); err != nil {
		return nil, err
	}
	if err := writeSummary(f, headerStyle, period, s.timeSource.Now(), Summarize(entries)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, row, style int, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func writeEntries(f *excelize.File, headerStyle int, entries []*station.FuelEntry) error {
	if err := writeHeader(f, entriesSheet, 1, headerStyle, entryHeaders); err != nil {
		return fmt.Errorf("writing entry headers: %w", err)
	}
	if err := f.SetColWidth(entriesSheet, "A", "K", 16); err != nil {
		return fmt.Errorf("sizing entry columns: %w", err)
	}

	for i, e := range entries {
		var machine, employee string
		if e.Machine != nil {
			machine = e.Machine.MachineID
		}
		if e.Employee != nil {
			employee = e.Employee.Name
		}
		var odometer any
		if e.OdometerReading != nil {
			odometer = *e.OdometerReading
		}

		row := []any{
			e.Date.Format("2006-01-02 15:04"),
			string(e.FuelType),
			e.Quantity,
			e.PricePerUnit,
			e.TotalCost,
			string(e.Shift),
			machine,
			employee,
			odometer,
			e.Location,
			e.Notes,
		}
		if err := writeRow(f, entriesSheet, i+2, row); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, headerStyle int, period station.Period, now time.Time, stats *Stats) error {
	rows := [][]any{
		{"Period", string(period)},
		{"Generated", now.Format("2006-01-02 15:04:05")},
		{},
		{"Total Quantity", stats.Overall.TotalQuantity.InexactFloat64()},
		{"Total Cost", stats.Overall.TotalCost.InexactFloat64()},
		{"Average Price", stats.Overall.AveragePrice.InexactFloat64()},
		{"Transactions", stats.Overall.TransactionCount},
	}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		if err := writeRow(f, summarySheet, i+1, r); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	row := len(rows) + 2
	if err := writeHeader(f, summarySheet, row, headerStyle, []string{"Fuel Type", "Quantity", "Cost", "Count", "Average Price"}); err != nil {
		return fmt.Errorf("writing fuel type headers: %w", err)
	}
	for _, ft := range stats.FuelTypes {
		row++
		values := []any{string(ft.Type), ft.Quantity.InexactFloat64(), ft.Cost.InexactFloat64(), ft.Count, ft.AveragePrice.InexactFloat64()}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return fmt.Errorf("writing fuel type %s: %w", ft.Type, err)
		}
	}

	row += 2
	if err := writeHeader(f, summarySheet, row, headerStyle, []string{"Shift", "Quantity", "Cost", "Count"}); err != nil {
		return fmt.Errorf("writing shift headers: %w", err)
	}
	for _, sh := range stats.Shifts {
		row++
		values := []any{string(sh.Shift), sh.Quantity.InexactFloat64(), sh.Cost.InexactFloat64(), sh.Count}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return fmt.Errorf("writing shift %s: %w", sh.Shift, err)
		}
	}

	return f.SetColWidth(summarySheet, "A", "E", 18)
}
