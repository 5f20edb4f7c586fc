package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
	"testons-go/server/internal/sentiment"
)

const (
	sheetSummary   = "Synthèse"
	sheetTasks     = "Tâches"
	sheetSessions  = "Sessions"
	sheetVerbatims = "Verbatims"
)

// WriteXLSX writes a workbook with the headline figures, the per-task table,
// the raw results and the verbatims, one sheet each.
func WriteXLSX(w io.Writer, report metrics.Report, sessions []models.TestSession, protocol []models.TaskDefinition, verbatims sentiment.Verbatims) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{sheetSummary, []string{"Indicateur", "Valeur"}, SummaryRows(report)},
		{sheetTasks, TaskHeader(), TaskRows(report)},
		{sheetSessions, SessionHeader(), SessionRows(sessions, protocol)},
		{sheetVerbatims, VerbatimHeader(), VerbatimRows(verbatims)},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh.name, sh.header, sh.rows, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}
