// File: internal/exporter/exporter.go

// Package exporter writes the day-wise aggregate table to spreadsheet
// formats for people who want the numbers behind the chart.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// Columns of the exported day-wise table, in order.
var header = []string{
	"Date", "DayIndex", "Total",
	"New", "Approved", "PartiallyPaid", "Paid", "CheckedIn",
	"Normal", "Sponsor", "SuperSponsor",
}

// Exporter writes day-wise aggregates to files
type Exporter struct {
	logger *logrus.Logger
}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{logger: utils.GetLogger()}
}

// ExportXLSX writes the aggregates of one season to an XLSX workbook with a
// single "Daywise" sheet.
func (e *Exporter) ExportXLSX(aggregates []*models.DayAggregate, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Daywise"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeExport, "Failed to address header cell", err.Error())
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return utils.NewAppError(utils.ErrCodeExport, "Failed to write header cell", err.Error())
		}
	}

	for i, agg := range aggregates {
		for col, value := range rowValues(agg) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return utils.NewAppError(utils.ErrCodeExport, "Failed to address cell", err.Error())
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return utils.NewAppError(utils.ErrCodeExport, "Failed to write cell", err.Error())
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return utils.NewAppError(utils.ErrCodeExport, "Failed to save workbook", err.Error())
	}

	e.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": len(aggregates),
	}).Info("Day-wise table exported")

	return nil
}

// ExportCSV writes the aggregates of one season as CSV.
func (e *Exporter) ExportCSV(aggregates []*models.DayAggregate, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeExport, "Failed to create CSV file", err.Error())
	}
	defer file.Close()

	w := csv.NewWriter(file)

	if err := w.Write(header); err != nil {
		return utils.NewAppError(utils.ErrCodeExport, "Failed to write CSV header", err.Error())
	}

	for _, agg := range aggregates {
		record := make([]string, 0, len(header))
		for _, value := range rowValues(agg) {
			switch v := value.(type) {
			case string:
				record = append(record, v)
			case int:
				record = append(record, strconv.Itoa(v))
			default:
				record = append(record, fmt.Sprintf("%v", v))
			}
		}
		if err := w.Write(record); err != nil {
			return utils.NewAppError(utils.ErrCodeExport, "Failed to write CSV record", err.Error())
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return utils.NewAppError(utils.ErrCodeExport, "Failed to flush CSV", err.Error())
	}

	e.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": len(aggregates),
	}).Info("Day-wise table exported")

	return nil
}

// rowValues flattens one aggregate into the header column order.
func rowValues(agg *models.DayAggregate) []interface{} {
	return []interface{}{
		agg.Date.Format("2006-01-02"),
		agg.DayIndex,
		agg.TotalCount,
		agg.Status.New,
		agg.Status.Approved,
		agg.Status.PartiallyPaid,
		agg.Status.Paid,
		agg.Status.CheckedIn,
		agg.Sponsor.Normal,
		agg.Sponsor.Sponsor,
		agg.Sponsor.SuperSponsor,
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return utils.NewAppError(utils.ErrCodeExport, "Failed to create output directory", err.Error())
	}
	return nil
}
