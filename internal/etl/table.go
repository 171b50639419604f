package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is one loaded tabular file: a disambiguated header plus raw rows.
type Table struct {
	Source string
	Header []string
	Rows   [][]string

	index map[string]int
}

// Col returns the value of the named column for a row, or "" when the column
// is absent or the row is short.
func (t *Table) Col(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// HasColumn reports whether the header carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MissingColumns returns the subset of required not present in the header.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RowMap copies a row into a column-name keyed map.
func (t *Table) RowMap(row []string) map[string]string {
	m := make(map[string]string, len(t.Header))
	for name, i := range t.index {
		if i < len(row) {
			m[name] = strings.TrimSpace(row[i])
		} else {
			m[name] = ""
		}
	}
	return m
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		t.index[name] = i
	}
}

// ReadTable loads a .csv or .xlsx file into a Table. The header row is the
// first row; see ReadTableScan for banner-tolerant loading.
func ReadTable(path string) (*Table, error) {
	return readTable(path, nil)
}

// ReadTableScan loads a file like ReadTable but locates the header by
// scanning for the first row that contains every marker column. Brokerage
// exports often lead with banner or disclaimer rows before the real header.
func ReadTableScan(path string, markers []string) (*Table, error) {
	return readTable(path, markers)
}

func readTable(path string, markers []string) (*Table, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}

	headerIdx := 0
	if len(markers) > 0 {
		headerIdx = findHeaderRow(rows, markers)
		if headerIdx < 0 {
			return nil, fmt.Errorf("no header row containing %s found in %s",
				strings.Join(markers, "+"), path)
		}
	}
	if headerIdx >= len(rows) {
		return nil, fmt.Errorf("file %s has no data rows", path)
	}

	t := &Table{
		Source: filepath.Base(path),
		Header: dedupeHeader(rows[headerIdx]),
		Rows:   rows[headerIdx+1:],
	}
	t.buildIndex()
	return t, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &MissingInputFileError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines degrade, they do not abort the file.
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &MissingInputFileError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheets[0], path, err)
	}
	return rows, nil
}

// findHeaderRow returns the index of the first row containing every marker
// (case-insensitive cell match), or -1.
func findHeaderRow(rows [][]string, markers []string) int {
	for i, row := range rows {
		found := 0
		for _, marker := range markers {
			for _, cell := range row {
				if strings.EqualFold(strings.TrimSpace(cell), marker) {
					found++
					break
				}
			}
		}
		if found == len(markers) {
			return i
		}
	}
	return -1
}

// dedupeHeader trims header cells and disambiguates duplicates by suffixing
// "(2)", "(3)" and so on in encounter order.
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s(%d)", name, n)
		}
		out[i] = name
	}
	return out
}
