package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a raw tabular source: a header plus string cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of column, matching exactly first and
// then case-insensitively. It returns -1 when the column is absent.
func (t Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries column.
func (t Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// cell returns the trimmed value at row/col, or "" when out of range.
func (t Table) cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ReadCSV reads a CSV document into a Table. Header names are trimmed.
func ReadCSV(r io.Reader, name string) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return Table{Name: name}, nil
		}
		return Table{}, fmt.Errorf("failed to read header of %s: %w", name, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	table := Table{Name: name, Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path, name string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, name)
}
