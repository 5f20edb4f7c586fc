package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"testons-go/server/internal/models"
)

// WriteCSV writes one row per task result. A UTF-8 BOM leads the file so
// spreadsheet tools pick up the accented labels.
func WriteCSV(w io.Writer, sessions []models.TestSession, protocol []models.TaskDefinition) error {
	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(SessionHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range SessionRows(sessions, protocol) {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
