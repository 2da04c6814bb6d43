package sonnet

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

const (
	tableEmission    = "emission"
	tableTransitions = "transitions"

	axisRow = "row"
	axisCol = "col"
)

// SetupSchema initializes the tables used by Store in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaLabels = `
CREATE TABLE IF NOT EXISTS sonnet_labels (
    table_name TEXT NOT NULL,
    axis TEXT NOT NULL,
    position INTEGER NOT NULL,
    label TEXT NOT NULL,
    PRIMARY KEY (table_name, axis, position)
);
`
		schemaCells = `
CREATE TABLE IF NOT EXISTS sonnet_cells (
    table_name TEXT NOT NULL,
    row_pos INTEGER NOT NULL,
    col_pos INTEGER NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (table_name, row_pos, col_pos)
);
`
		schemaStates = `
CREATE TABLE IF NOT EXISTS sonnet_states (
    state_name TEXT PRIMARY KEY
);
`
		schemaWords = `
CREATE TABLE IF NOT EXISTS sonnet_words (
    state_name TEXT NOT NULL,
    word TEXT NOT NULL,
    probability REAL NOT NULL,
    PRIMARY KEY (state_name, word)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaLabels); err != nil {
		return fmt.Errorf("could not create labels schema: %w", err)
	}
	if _, err = tx.Exec(schemaCells); err != nil {
		return fmt.Errorf("could not create cells schema: %w", err)
	}
	if _, err = tx.Exec(schemaStates); err != nil {
		return fmt.Errorf("could not create states schema: %w", err)
	}
	if _, err = tx.Exec(schemaWords); err != nil {
		return fmt.Errorf("could not create words schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store keeps the raw resources in a SQLite database so they can be loaded
// without the original files. It holds prepared statements for the queries it
// runs.
type Store struct {
	db               *sql.DB
	stmtInsertLabel  *sql.Stmt
	stmtInsertCell   *sql.Stmt
	stmtInsertState  *sql.Stmt
	stmtInsertWord   *sql.Stmt
	stmtSelectLabels *sql.Stmt
	stmtSelectCells  *sql.Stmt
	stmtSelectStates *sql.Stmt
	stmtSelectWords  *sql.Stmt
	stmtCountLabels  *sql.Stmt
	logger           *slog.Logger
}

// NewStore prepares the store's statements. SetupSchema must have been called
// on db first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsertLabel, err := db.Prepare(`INSERT INTO sonnet_labels (table_name, axis, position, label) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtInsertCell, err := db.Prepare(`INSERT INTO sonnet_cells (table_name, row_pos, col_pos, value) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtInsertState, err := db.Prepare(`INSERT INTO sonnet_states (state_name) VALUES (?);`)
	if err != nil {
		return nil, err
	}

	stmtInsertWord, err := db.Prepare(`INSERT INTO sonnet_words (state_name, word, probability) VALUES (?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtSelectLabels, err := db.Prepare(`SELECT axis, label FROM sonnet_labels WHERE table_name = ? ORDER BY axis, position;`)
	if err != nil {
		return nil, err
	}

	stmtSelectCells, err := db.Prepare(`SELECT row_pos, col_pos, value FROM sonnet_cells WHERE table_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtSelectStates, err := db.Prepare(`SELECT state_name FROM sonnet_states;`)
	if err != nil {
		return nil, err
	}

	stmtSelectWords, err := db.Prepare(`SELECT state_name, word, probability FROM sonnet_words;`)
	if err != nil {
		return nil, err
	}

	stmtCountLabels, err := db.Prepare(`SELECT COUNT(*) FROM sonnet_labels;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:               db,
		stmtInsertLabel:  stmtInsertLabel,
		stmtInsertCell:   stmtInsertCell,
		stmtInsertState:  stmtInsertState,
		stmtInsertWord:   stmtInsertWord,
		stmtSelectLabels: stmtSelectLabels,
		stmtSelectCells:  stmtSelectCells,
		stmtSelectStates: stmtSelectStates,
		stmtSelectWords:  stmtSelectWords,
		stmtCountLabels:  stmtCountLabels,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtInsertLabel.Close()
	_ = s.stmtInsertCell.Close()
	_ = s.stmtInsertState.Close()
	_ = s.stmtInsertWord.Close()
	_ = s.stmtSelectLabels.Close()
	_ = s.stmtSelectCells.Close()
	_ = s.stmtSelectStates.Close()
	_ = s.stmtSelectWords.Close()
	_ = s.stmtCountLabels.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Empty reports whether no resources have been saved yet.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.stmtCountLabels.QueryRowContext(ctx).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// Save replaces the stored resources with raw. The operation is performed
// within a single transaction.
func (s *Store) Save(ctx context.Context, raw *RawTables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, table := range []string{"sonnet_labels", "sonnet_cells", "sonnet_states", "sonnet_words"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stmtInsertLabel := tx.StmtContext(ctx, s.stmtInsertLabel)
	stmtInsertCell := tx.StmtContext(ctx, s.stmtInsertCell)
	stmtInsertState := tx.StmtContext(ctx, s.stmtInsertState)
	stmtInsertWord := tx.StmtContext(ctx, s.stmtInsertWord)

	saveTable := func(name string, t *Table) error {
		for i, label := range t.Cols {
			if _, err := stmtInsertLabel.ExecContext(ctx, name, axisCol, i, label); err != nil {
				return fmt.Errorf("failed to insert %s column %q: %w", name, label, err)
			}
		}
		for i, label := range t.Rows {
			if _, err := stmtInsertLabel.ExecContext(ctx, name, axisRow, i, label); err != nil {
				return fmt.Errorf("failed to insert %s row %q: %w", name, label, err)
			}
			for col, v := range t.row(i) {
				if _, err := stmtInsertCell.ExecContext(ctx, name, i, col, v); err != nil {
					return fmt.Errorf("failed to insert %s cell (%d, %d): %w", name, i, col, err)
				}
			}
		}
		return nil
	}

	if err = saveTable(tableEmission, raw.Emission); err != nil {
		return err
	}
	if err = saveTable(tableTransitions, raw.Transitions); err != nil {
		return err
	}

	var wordCount int
	// States are stored on their own so an empty word object survives the
	// round trip.
	for state, words := range raw.Words {
		if _, err = stmtInsertState.ExecContext(ctx, state); err != nil {
			return fmt.Errorf("failed to insert state %q: %w", state, err)
		}
		for word, p := range words {
			if _, err = stmtInsertWord.ExecContext(ctx, state, word, p); err != nil {
				return fmt.Errorf("failed to insert word %q for state %q: %w", word, state, err)
			}
			wordCount++
		}
	}

	s.logger.InfoContext(ctx, "Resources saved",
		slog.Int("emission_states", len(raw.Emission.Rows)),
		slog.Int("transition_words", len(raw.Transitions.Rows)),
		slog.Int("transition_links", raw.Transitions.NonZero()),
		slog.Int("word_entries", wordCount),
	)

	return tx.Commit()
}

// Load reads the stored resources back. It returns ErrResourceNotFound when
// nothing has been saved.
func (s *Store) Load(ctx context.Context) (*RawTables, error) {
	empty, err := s.Empty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, fmt.Errorf("%w: database holds no resources", ErrResourceNotFound)
	}

	emission, err := s.loadTable(ctx, tableEmission)
	if err != nil {
		return nil, fmt.Errorf("emission table: %w", err)
	}
	transitions, err := s.loadTable(ctx, tableTransitions)
	if err != nil {
		return nil, fmt.Errorf("transition table: %w", err)
	}

	words, err := s.loadStates(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtSelectWords.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var state, word string
		var p float64
		if err = rows.Scan(&state, &word, &p); err != nil {
			return nil, err
		}
		if words[state] == nil {
			words[state] = make(map[string]float64)
		}
		words[state][word] = p
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if err = validateWords(words); err != nil {
		return nil, err
	}

	return &RawTables{Emission: emission, Transitions: transitions, Words: words}, nil
}

// loadStates returns an empty word map for every stored state.
func (s *Store) loadStates(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := s.stmtSelectStates.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	words := make(map[string]map[string]float64)
	for rows.Next() {
		var state string
		if err = rows.Scan(&state); err != nil {
			return nil, err
		}
		words[state] = make(map[string]float64)
	}
	return words, rows.Err()
}

func (s *Store) loadTable(ctx context.Context, name string) (*Table, error) {
	rows, err := s.stmtSelectLabels.QueryContext(ctx, name)
	if err != nil {
		return nil, err
	}
	var cols, rowLabels []string
	for rows.Next() {
		var axis, label string
		if err = rows.Scan(&axis, &label); err != nil {
			_ = rows.Close()
			return nil, err
		}
		switch axis {
		case axisCol:
			cols = append(cols, label)
		case axisRow:
			rowLabels = append(rowLabels, label)
		default:
			_ = rows.Close()
			return nil, fmt.Errorf("%w: unknown axis %q", ErrResourceMalformed, axis)
		}
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	t, err := NewTable(cols)
	if err != nil {
		return nil, err
	}
	for _, label := range rowLabels {
		if _, err = t.AddRow(label); err != nil {
			return nil, err
		}
	}

	cRows, err := s.stmtSelectCells.QueryContext(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(cRows)
	for cRows.Next() {
		var r, c int
		var v float64
		if err = cRows.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Cols) || v < 0 {
			return nil, fmt.Errorf("%w: invalid cell (%d, %d) = %v", ErrResourceMalformed, r, c, v)
		}
		t.Set(r, c, v)
	}
	if err = cRows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
