package sheets

import (
	"sort"
	"time"

	"docflow/internal/ocr"
)

// Fixed columns framing the extracted field values.
const (
	columnFilename    = "Datei"
	columnStatus      = "Status"
	columnProcessedAt = "Verarbeitet"
)

// ColumnsFor decides the field columns for an upload. Configured columns win;
// without configuration the sorted union of all extracted field names is used
// so every value from the batch has a column.
func ColumnsFor(results []*ocr.Analysis, configured []string) []string {
	if len(configured) > 0 {
		return configured
	}

	seen := make(map[string]bool)
	for _, result := range results {
		for name := range result.ExtractedFields {
			seen[name] = true
		}
		for name := range result.KeyFields {
			seen[name] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// HeaderRow builds the header for the given field columns.
func HeaderRow(columns []string) []interface{} {
	header := make([]interface{}, 0, len(columns)+3)
	header = append(header, columnFilename)
	for _, column := range columns {
		header = append(header, column)
	}
	header = append(header, columnStatus, columnProcessedAt)
	return header
}

// BuildRows converts analyses into sheet rows matching the header layout.
// Canonical key fields take precedence over raw extracted fields under the
// same column name.
func BuildRows(results []*ocr.Analysis, columns []string, processedAt time.Time) [][]interface{} {
	stamp := processedAt.Format("02.01.2006 15:04:05")

	rows := make([][]interface{}, 0, len(results))
	for _, result := range results {
		row := make([]interface{}, 0, len(columns)+3)
		row = append(row, result.SourceFile)
		for _, column := range columns {
			row = append(row, fieldValue(result, column))
		}

		status := result.Status
		if result.Status == ocr.StatusFailed && result.Error != "" {
			status = result.Status + ": " + result.Error
		}
		row = append(row, status, stamp)
		rows = append(rows, row)
	}
	return rows
}

func fieldValue(result *ocr.Analysis, column string) string {
	if kf, ok := result.KeyFields[column]; ok {
		return kf.Value
	}
	return result.ExtractedFields[column]
}
