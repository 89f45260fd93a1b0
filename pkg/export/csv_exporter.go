package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Column maps a row key to the header written in the CSV.
type Column struct {
	Key   string
	Title string
}

// Table is the tabular content of an export.
type Table struct {
	Columns []Column
	Rows    []map[string]string
}

// CSVExporter renders tables into CSV bytes.
type CSVExporter struct {
	// BOM prefixes output with a UTF-8 byte order mark so spreadsheet tools detect the encoding.
	BOM bool
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{BOM: true}
}

// Render produces CSV encoded bytes for the table. Missing row keys are written as empty cells.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.WriteString("\xEF\xBB\xBF")
	}
	writer := csv.NewWriter(buf)

	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Title
		if header[i] == "" {
			header[i] = col.Key
		}
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = row[col.Key]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
