package sonnet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a rectangular numeric table with labeled rows and columns, as read
// from a tab-separated resource. Only nonzero cells are stored, so a row that
// exists but holds nothing but zeros is still reported by RowIndex.
type Table struct {
	Rows []string
	Cols []string

	rowIndex map[string]int
	colIndex map[string]int
	cells    []map[int]float64
}

// NewTable returns an empty table with the given column labels. Rows are added
// with AddRow. Column labels must be non-empty and unique.
func NewTable(cols []string) (*Table, error) {
	t := &Table{
		Cols:     make([]string, 0, len(cols)),
		rowIndex: make(map[string]int),
		colIndex: make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		if c == "" {
			return nil, fmt.Errorf("%w: empty column label", ErrResourceMalformed)
		}
		if _, dup := t.colIndex[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column label %q", ErrResourceMalformed, c)
		}
		t.colIndex[c] = len(t.Cols)
		t.Cols = append(t.Cols, c)
	}
	return t, nil
}

// AddRow appends a row with the given label and returns its index.
func (t *Table) AddRow(label string) (int, error) {
	if label == "" {
		return 0, fmt.Errorf("%w: empty row label", ErrResourceMalformed)
	}
	if _, dup := t.rowIndex[label]; dup {
		return 0, fmt.Errorf("%w: duplicate row label %q", ErrResourceMalformed, label)
	}
	idx := len(t.Rows)
	t.rowIndex[label] = idx
	t.Rows = append(t.Rows, label)
	t.cells = append(t.cells, make(map[int]float64))
	return idx, nil
}

// Set stores v at (row, col). Zero values are not stored.
func (t *Table) Set(row, col int, v float64) {
	if v == 0 {
		delete(t.cells[row], col)
		return
	}
	t.cells[row][col] = v
}

// At returns the value at (row, col), zero when unset.
func (t *Table) At(row, col int) float64 {
	return t.cells[row][col]
}

// RowIndex looks up a row by label.
func (t *Table) RowIndex(label string) (int, bool) {
	i, ok := t.rowIndex[label]
	return i, ok
}

// ColIndex looks up a column by label.
func (t *Table) ColIndex(label string) (int, bool) {
	i, ok := t.colIndex[label]
	return i, ok
}

// NonZero returns the number of stored (nonzero) cells.
func (t *Table) NonZero() int {
	n := 0
	for _, row := range t.cells {
		n += len(row)
	}
	return n
}

// row exposes the sparse cells of a row for read-only use inside the package.
func (t *Table) row(i int) map[int]float64 {
	return t.cells[i]
}

// decodeResource strips a byte order mark and decodes UTF-16 input when one is
// present. Resources exported from spreadsheets frequently carry one.
func decodeResource(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadTable parses a tab-separated table with a header row. The header may
// either start with a corner cell (same width as the data rows) or list only
// the column labels (one field narrower than the data rows). The first field of
// every data row is the row label.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(decodeResource(r))
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrResourceMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceMalformed, err)
	}
	header = append([]string(nil), header...)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var t *Table
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResourceMalformed, err)
		}
		line++

		if t == nil {
			var cols []string
			switch len(record) {
			case len(header) + 1:
				cols = header
			case len(header):
				cols = header[1:]
			default:
				return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrResourceMalformed, line, len(record), len(header))
			}
			if len(cols) == 0 {
				return nil, fmt.Errorf("%w: table has no columns", ErrResourceMalformed)
			}
			if t, err = NewTable(cols); err != nil {
				return nil, err
			}
		}
		if len(record) != len(t.Cols)+1 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrResourceMalformed, line, len(record), len(t.Cols)+1)
		}

		rowIdx, err := t.AddRow(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for col, field := range record[1:] {
			v, err := parseProbability(field)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrResourceMalformed, line, t.Cols[col], err)
			}
			t.Set(rowIdx, col, v)
		}
	}

	if t == nil {
		return nil, fmt.Errorf("%w: table has no rows", ErrResourceMalformed)
	}
	return t, nil
}

func parseProbability(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", field)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %v", v)
	}
	return v, nil
}
