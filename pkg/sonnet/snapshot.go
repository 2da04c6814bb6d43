package sonnet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/natefinch/atomic"
)

// Snapshot is the serializable form of RawTables, used to bundle all three
// resources into a single JSON document.
type Snapshot struct {
	Emission    TableSnapshot                 `json:"emission"`
	Transitions TableSnapshot                 `json:"transitions"`
	Words       map[string]map[string]float64 `json:"words"`
}

// TableSnapshot is the serializable form of a Table. Only nonzero cells are
// listed.
type TableSnapshot struct {
	Rows  []string       `json:"rows"`
	Cols  []string       `json:"cols"`
	Cells []SnapshotCell `json:"cells"`
}

// SnapshotCell is one nonzero cell of a TableSnapshot, addressed by position.
type SnapshotCell struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

func snapshotTable(t *Table) TableSnapshot {
	ts := TableSnapshot{
		Rows:  append([]string(nil), t.Rows...),
		Cols:  append([]string(nil), t.Cols...),
		Cells: make([]SnapshotCell, 0, t.NonZero()),
	}
	for r := range t.Rows {
		row := t.row(r)
		cols := make([]int, 0, len(row))
		for c := range row {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		for _, c := range cols {
			ts.Cells = append(ts.Cells, SnapshotCell{Row: r, Col: c, Value: row[c]})
		}
	}
	return ts
}

func (ts TableSnapshot) table() (*Table, error) {
	t, err := NewTable(ts.Cols)
	if err != nil {
		return nil, err
	}
	for _, label := range ts.Rows {
		if _, err = t.AddRow(label); err != nil {
			return nil, err
		}
	}
	for _, cell := range ts.Cells {
		if cell.Row < 0 || cell.Row >= len(t.Rows) || cell.Col < 0 || cell.Col >= len(t.Cols) {
			return nil, fmt.Errorf("%w: cell (%d, %d) out of range", ErrResourceMalformed, cell.Row, cell.Col)
		}
		if math.IsNaN(cell.Value) || math.IsInf(cell.Value, 0) || cell.Value < 0 {
			return nil, fmt.Errorf("%w: cell (%d, %d) has invalid value %v", ErrResourceMalformed, cell.Row, cell.Col, cell.Value)
		}
		t.Set(cell.Row, cell.Col, cell.Value)
	}
	return t, nil
}

// WriteSnapshot serializes raw as indented JSON to w.
func WriteSnapshot(w io.Writer, raw *RawTables) error {
	snap := Snapshot{
		Emission:    snapshotTable(raw.Emission),
		Transitions: snapshotTable(raw.Transitions),
		Words:       raw.Words,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*RawTables, error) {
	var snap Snapshot
	if err := json.NewDecoder(decodeResource(r)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot: %w", ErrResourceMalformed, err)
	}
	emission, err := snap.Emission.table()
	if err != nil {
		return nil, fmt.Errorf("emission: %w", err)
	}
	transitions, err := snap.Transitions.table()
	if err != nil {
		return nil, fmt.Errorf("transitions: %w", err)
	}
	if err = validateWords(snap.Words); err != nil {
		return nil, err
	}
	return &RawTables{Emission: emission, Transitions: transitions, Words: snap.Words}, nil
}

// WriteSnapshotFile atomically replaces the file at path with a snapshot of raw.
func WriteSnapshotFile(path string, raw *RawTables) error {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, raw); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshotFile reads a snapshot from path. A missing file yields
// ErrResourceNotFound.
func LoadSnapshotFile(path string) (*RawTables, error) {
	return loadFile(path, "snapshot", ReadSnapshot)
}
