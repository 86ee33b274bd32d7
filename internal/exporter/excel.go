package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"twdash/pkg/contracts/domain"
)

// ExcelWriter exports a reconciliation result as a single workbook with one
// sheet per classification group plus a summary sheet.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "exporter.excel"))}
}

// ExportResult writes the workbook to fullPath.
func (w *ExcelWriter) ExportResult(result domain.ReconciliationResult, fullPath string) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, result); err != nil {
		return err
	}

	groups := []struct {
		sheet   string
		records []domain.MergedRecord
	}{
		{"Buying", result.Buying},
		{"Selling", result.Selling},
		{"No Flow Data", result.NoFlowData},
	}

	for _, g := range groups {
		if _, err := f.NewSheet(g.sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", g.sheet, err)
		}
		if err := w.writeGroup(f, g.sheet, g.records); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("path", fullPath),
		slog.Int("records", result.Total()))

	return nil
}

// writeSummary fills the default sheet with run metadata.
func (w *ExcelWriter) writeSummary(f *excelize.File, result domain.ReconciliationResult) error {
	const sheet = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Run ID", result.RunID},
		{"5-day ranking date", orNA(result.FiveDayDate)},
		{"10-day ranking date", orNA(result.TenDayDate)},
		{"Flow data date", orNA(result.FlowDate)},
		{"Dates aligned", result.DatesAligned()},
		{"Buying", len(result.Buying)},
		{"Selling", len(result.Selling)},
		{"No flow data", len(result.NoFlowData)},
		{"Total", result.Total()},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	return nil
}

// writeGroup writes headers plus one row per record to the sheet.
func (w *ExcelWriter) writeGroup(f *excelize.File, sheet string, records []domain.MergedRecord) error {
	header := make([]interface{}, len(resultHeaders))
	for i, h := range resultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, m := range records {
		cells := recordRow(m)
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
