// Package export renders report downloads for the portal's admin
// screens. Both exporters consume the same Dataset so the payment and
// student reports pick their format per request.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a rendered table. Rows are keyed by header so column
// order follows Headers regardless of how a row map was built.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter encodes a Dataset as a CSV document.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by every data row. Cells with
// no value for a header come out empty rather than shifting the row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
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
