package sonnet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
)

// RawTables holds the three input resources exactly as read, before any
// cleaning or state resolution. It is the exchange format between the file
// loader, the JSON snapshot, and the SQLite store.
type RawTables struct {
	Emission    *Table
	Transitions *Table
	// Words maps state name -> raw word key -> raw probability. Keys may carry a
	// ".<integer>" disambiguation suffix.
	Words map[string]map[string]float64
}

// Resources names the files the three tables are read from.
type Resources struct {
	EmissionPath   string `json:"emission_path"`
	TransitionPath string `json:"transition_path"`
	WordsPath      string `json:"words_path"`
}

// ReadWordDistributions parses the word distribution resource: a JSON object
// mapping state name to an object of word -> probability.
func ReadWordDistributions(r io.Reader) (map[string]map[string]float64, error) {
	var words map[string]map[string]float64
	dec := json.NewDecoder(decodeResource(r))
	if err := dec.Decode(&words); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceMalformed, err)
	}
	if err := validateWords(words); err != nil {
		return nil, err
	}
	return words, nil
}

func validateWords(words map[string]map[string]float64) error {
	if words == nil {
		return fmt.Errorf("%w: word distributions must be a JSON object", ErrResourceMalformed)
	}
	for state, dist := range words {
		if dist == nil {
			return fmt.Errorf("%w: state %q has no word object", ErrResourceMalformed, state)
		}
		for word, p := range dist {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return fmt.Errorf("%w: state %q word %q has invalid probability %v", ErrResourceMalformed, state, word, p)
			}
		}
	}
	return nil
}

// LoadFiles reads the emission table, transition table and word distributions
// from the given paths. A missing file yields ErrResourceNotFound, a file that
// does not parse yields ErrResourceMalformed.
func LoadFiles(res Resources) (*RawTables, error) {
	emission, err := loadFile(res.EmissionPath, "emission table", ReadTable)
	if err != nil {
		return nil, err
	}
	transitions, err := loadFile(res.TransitionPath, "transition table", ReadTable)
	if err != nil {
		return nil, err
	}
	words, err := loadFile(res.WordsPath, "word distributions", ReadWordDistributions)
	if err != nil {
		return nil, err
	}
	return &RawTables{Emission: emission, Transitions: transitions, Words: words}, nil
}

func loadFile[T any](path, name string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, fmt.Errorf("%w: no path configured for %s", ErrResourceNotFound, name)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, fmt.Errorf("%w: %s: %w", ErrResourceNotFound, name, err)
		}
		return zero, fmt.Errorf("could not open %s: %w", name, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", name, path, err)
	}
	return v, nil
}
