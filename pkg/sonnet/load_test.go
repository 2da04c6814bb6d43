package sonnet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTestResources writes the fixture files into dir and returns their paths.
func writeTestResources(t *testing.T, dir string) Resources {
	t.Helper()
	res := Resources{
		EmissionPath:   filepath.Join(dir, "emission.tsv"),
		TransitionPath: filepath.Join(dir, "transitions.tsv"),
		WordsPath:      filepath.Join(dir, "words.json"),
	}
	for path, content := range map[string]string{
		res.EmissionPath:   testEmission,
		res.TransitionPath: testTransitions,
		res.WordsPath:      testWords,
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return res
}

// assertRawEqual compares labels and every cell of two RawTables.
func assertRawEqual(t *testing.T, got, want *RawTables) {
	t.Helper()
	for name, pair := range map[string][2]*Table{
		"emission":    {got.Emission, want.Emission},
		"transitions": {got.Transitions, want.Transitions},
	} {
		g, w := pair[0], pair[1]
		if len(g.Rows) != len(w.Rows) || len(g.Cols) != len(w.Cols) {
			t.Fatalf("%s: got %dx%d, want %dx%d", name, len(g.Rows), len(g.Cols), len(w.Rows), len(w.Cols))
		}
		for r := range w.Rows {
			if g.Rows[r] != w.Rows[r] {
				t.Errorf("%s: row %d = %q, want %q", name, r, g.Rows[r], w.Rows[r])
			}
			for c := range w.Cols {
				if g.At(r, c) != w.At(r, c) {
					t.Errorf("%s: cell (%s, %s) = %v, want %v", name, w.Rows[r], w.Cols[c], g.At(r, c), w.At(r, c))
				}
			}
		}
		for c := range w.Cols {
			if g.Cols[c] != w.Cols[c] {
				t.Errorf("%s: column %d = %q, want %q", name, c, g.Cols[c], w.Cols[c])
			}
		}
	}
	if len(got.Words) != len(want.Words) {
		t.Fatalf("got %d word states, want %d", len(got.Words), len(want.Words))
	}
	for state, words := range want.Words {
		if len(got.Words[state]) != len(words) {
			t.Errorf("state %s: got %d words, want %d", state, len(got.Words[state]), len(words))
		}
		for word, p := range words {
			if got.Words[state][word] != p {
				t.Errorf("state %s word %s = %v, want %v", state, word, got.Words[state][word], p)
			}
		}
	}
}

func TestLoadFiles(t *testing.T) {
	res := writeTestResources(t, t.TempDir())

	raw, err := LoadFiles(res)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	assertRawEqual(t, raw, newTestRaw(t, testEmission, testTransitions, testWords))

	if _, err := NewTables(raw, DefaultStateNames()); err != nil {
		t.Errorf("NewTables() error = %v", err)
	}
}

func TestLoadFilesNotFound(t *testing.T) {
	dir := t.TempDir()
	res := writeTestResources(t, dir)

	testCases := []struct {
		name   string
		modify func(*Resources)
	}{
		{name: "Missing emission", modify: func(r *Resources) { r.EmissionPath = filepath.Join(dir, "nope.tsv") }},
		{name: "Missing transitions", modify: func(r *Resources) { r.TransitionPath = filepath.Join(dir, "nope.tsv") }},
		{name: "Missing words", modify: func(r *Resources) { r.WordsPath = filepath.Join(dir, "nope.json") }},
		{name: "Empty path", modify: func(r *Resources) { r.WordsPath = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := res
			tc.modify(&r)
			_, err := LoadFiles(r)
			if !errors.Is(err, ErrResourceNotFound) {
				t.Errorf("expected ErrResourceNotFound, got %v", err)
			}
		})
	}
}

func TestLoadFilesMalformed(t *testing.T) {
	dir := t.TempDir()
	res := writeTestResources(t, dir)

	bad := filepath.Join(dir, "bad.tsv")
	if err := os.WriteFile(bad, []byte("a\tb\nx\t0.5\t0.1\t0.2\n"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", bad, err)
	}
	res.TransitionPath = bad

	_, err := LoadFiles(res)
	if !errors.Is(err, ErrResourceMalformed) {
		t.Errorf("expected ErrResourceMalformed, got %v", err)
	}
	if errors.Is(err, ErrResourceNotFound) {
		t.Error("malformed file should not report ErrResourceNotFound")
	}
}
