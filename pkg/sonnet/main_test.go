package sonnet

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Header without a corner cell, as pandas writes a table with a named index.
const testEmission = "StateBody\tStateSentenceEnd\tSTOP\n" +
	"StateBody\t0.6\t0.3\t0.1\n" +
	"StateSentenceEnd\t0.5\t0\t0.5\n"

// Header with a corner cell. "away" has a row of zeros: it is known but
// leads nowhere.
const testTransitions = "word\tfades\tlove\tnight\taway\tbright\trose\tsweet\n" +
	"rose\t0.7\t0.3\t0\t0\t0\t0\t0\n" +
	"sweet\t0\t0.5\t0.5\t0\t0\t0\t0\n" +
	"fades\t0\t0\t0\t1\t0\t0\t0\n" +
	"love\t0\t0\t0.5\t0\t0.5\t0\t0\n" +
	"night\t0.5\t0\t0\t0\t0.5\t0\t0\n" +
	"away\t0\t0\t0\t0\t0\t0\t0\n" +
	"bright\t0\t0\t0\t0\t0\t0\t0\n"

// "ember" is a body word with no transition column.
const testWords = `{
  "StateFirstProb": {"rose": 0.5, "sweet.1": 0.3, "sweet.2": 0.2},
  "StateBody": {"fades": 0.4, "love": 0.3, "night": 0.2, "ember": 0.1},
  "StateSentenceEnd": {"away": 0.5, "bright": 0.5}
}`

// seqRand replays a fixed sequence of uniform values, cycling when exhausted.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

// newTestRaw parses the three resources from strings.
func newTestRaw(t testing.TB, emission, transitions, words string) *RawTables {
	t.Helper()
	e, err := ReadTable(strings.NewReader(emission))
	if err != nil {
		t.Fatalf("ReadTable(emission) error = %v", err)
	}
	tr, err := ReadTable(strings.NewReader(transitions))
	if err != nil {
		t.Fatalf("ReadTable(transitions) error = %v", err)
	}
	w, err := ReadWordDistributions(strings.NewReader(words))
	if err != nil {
		t.Fatalf("ReadWordDistributions() error = %v", err)
	}
	return &RawTables{Emission: e, Transitions: tr, Words: w}
}

// setupTestTables builds Tables from the given emission table and the
// default transition table and words.
func setupTestTables(t testing.TB, emission string) *Tables {
	t.Helper()
	tables, err := NewTables(newTestRaw(t, emission, testTransitions, testWords), DefaultStateNames())
	if err != nil {
		t.Fatalf("NewTables() error = %v", err)
	}
	return tables
}

// setupTestGenerator is a convenience helper over the default fixture.
func setupTestGenerator(t testing.TB, opts ...GeneratorOption) *Generator {
	t.Helper()
	g, err := NewGenerator(setupTestTables(t, testEmission), opts...)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

// mustState resolves a state name or fails the test.
func mustState(t testing.TB, tables *Tables, name string) State {
	t.Helper()
	s, ok := tables.Lookup(name)
	if !ok {
		t.Fatalf("state %q not found", name)
	}
	return s
}

// setupTestStore creates a new SQLite database and a Store for testing.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}
