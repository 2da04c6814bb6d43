package sonnet

import (
	"fmt"
	"regexp"
	"sort"
)

// StateNames designates the states the generation loop treats specially. All
// other states in the emission table are plain data-defined categories.
type StateNames struct {
	// Start produces only the first word of a quote.
	Start string `json:"start"`
	// Body is entered right after the first word.
	Body string `json:"body"`
	// SentenceEnd appends the sentence terminator to the word it produces.
	SentenceEnd string `json:"sentence_end"`
	// Stop is the absorbing terminal state. It produces no word.
	Stop string `json:"stop"`
}

// DefaultStateNames returns the state labels used by the stock resources.
func DefaultStateNames() StateNames {
	return StateNames{
		Start:       "StateFirstProb",
		Body:        "StateBody",
		SentenceEnd: "StateSentenceEnd",
		Stop:        "STOP",
	}
}

// State identifies a state resolved against the emission table at load time.
type State int

// WordDistribution is the cleaned word distribution of one state. Words are in
// lexicographic order and Probs sums to 1.
type WordDistribution struct {
	Words []string
	Probs []float64
	index map[string]int
}

// Prob returns the probability of word, zero when the word is unknown.
func (d WordDistribution) Prob(word string) float64 {
	if i, ok := d.index[word]; ok {
		return d.Probs[i]
	}
	return 0
}

var suffixPattern = regexp.MustCompile(`\.\d+$`)

// StripSuffix removes a trailing ".<integer>" disambiguation suffix.
func StripSuffix(word string) string {
	return suffixPattern.ReplaceAllString(word, "")
}

// CleanWordDistributions strips disambiguation suffixes from every word key,
// sums the probability of keys collapsing onto the same base word, and divides
// by the per-state total. A state with zero total mass is rejected.
func CleanWordDistributions(raw map[string]map[string]float64) (map[string]WordDistribution, error) {
	cleaned := make(map[string]WordDistribution, len(raw))
	for state, words := range raw {
		merged := make(map[string]float64, len(words))
		var total float64
		for word, p := range words {
			if p < 0 {
				return nil, fmt.Errorf("%w: state %q word %q has negative probability", ErrResourceMalformed, state, word)
			}
			merged[StripSuffix(word)] += p
			total += p
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: state %q has zero total probability", ErrResourceMalformed, state)
		}

		dist := WordDistribution{
			Words: make([]string, 0, len(merged)),
			index: make(map[string]int, len(merged)),
		}
		for word := range merged {
			dist.Words = append(dist.Words, word)
		}
		sort.Strings(dist.Words)
		dist.Probs = make([]float64, len(dist.Words))
		for i, word := range dist.Words {
			dist.Probs[i] = merged[word] / total
			dist.index[word] = i
		}
		cleaned[state] = dist
	}
	return cleaned, nil
}

// Tables is the immutable, process-wide model every sampling component reads
// from. It is built once by NewTables and never mutated afterwards, so it may
// be shared freely between goroutines.
type Tables struct {
	names      StateNames
	states     []string
	stateIndex map[string]State
	// states [0, numCols) are the emission table columns, in header order.
	numCols int
	// emission[s] has numCols entries, nil when s has no emission row.
	emission [][]float64
	words    []WordDistribution
	hasWords []bool

	transitions *Table

	start, body, sentenceEnd, stop State
}

// NewTables cleans the word distributions, resolves every state name against
// the emission table and validates that the generation loop can never look up
// a state it has no data for. Unknown state names are rejected with
// ErrResourceMalformed.
func NewTables(raw *RawTables, names StateNames) (*Tables, error) {
	if raw == nil || raw.Emission == nil || raw.Transitions == nil || raw.Words == nil {
		return nil, fmt.Errorf("%w: incomplete resources", ErrResourceMalformed)
	}
	if names.Start == "" || names.Body == "" || names.SentenceEnd == "" || names.Stop == "" {
		return nil, fmt.Errorf("%w: all designated state names must be set", ErrResourceMalformed)
	}

	cleaned, err := CleanWordDistributions(raw.Words)
	if err != nil {
		return nil, err
	}

	t := &Tables{
		names:       names,
		stateIndex:  make(map[string]State),
		numCols:     len(raw.Emission.Cols),
		transitions: raw.Transitions,
	}
	addState := func(name string) {
		if _, ok := t.stateIndex[name]; !ok {
			t.stateIndex[name] = State(len(t.states))
			t.states = append(t.states, name)
		}
	}
	for _, c := range raw.Emission.Cols {
		addState(c)
	}
	for _, r := range raw.Emission.Rows {
		addState(r)
	}
	if _, ok := cleaned[names.Start]; ok {
		addState(names.Start)
	}

	t.emission = make([][]float64, len(t.states))
	for i, label := range raw.Emission.Rows {
		row := make([]float64, t.numCols)
		for col, v := range raw.Emission.row(i) {
			row[col] = v
		}
		t.emission[t.stateIndex[label]] = row
	}

	t.words = make([]WordDistribution, len(t.states))
	t.hasWords = make([]bool, len(t.states))
	for name, dist := range cleaned {
		s, ok := t.stateIndex[name]
		if !ok {
			return nil, fmt.Errorf("%w: word distributions reference unknown state %q", ErrResourceMalformed, name)
		}
		t.words[s] = dist
		t.hasWords[s] = true
	}

	resolve := func(role, name string) (State, error) {
		s, ok := t.stateIndex[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s state %q not found", ErrResourceMalformed, role, name)
		}
		return s, nil
	}
	if t.start, err = resolve("start", names.Start); err != nil {
		return nil, err
	}
	if t.body, err = resolve("body", names.Body); err != nil {
		return nil, err
	}
	if t.sentenceEnd, err = resolve("sentence-end", names.SentenceEnd); err != nil {
		return nil, err
	}
	if t.stop, err = resolve("stop", names.Stop); err != nil {
		return nil, err
	}
	if int(t.stop) >= t.numCols {
		return nil, fmt.Errorf("%w: stop state %q is not an emission table column", ErrResourceMalformed, names.Stop)
	}
	if !t.hasWords[t.start] {
		return nil, fmt.Errorf("%w: start state %q has no word distribution", ErrResourceMalformed, names.Start)
	}

	// Every state the loop can sit in must have both an emission row and words.
	check := func(s State) error {
		if t.emission[s] == nil {
			return fmt.Errorf("%w: state %q has no emission row", ErrResourceMalformed, t.states[s])
		}
		if !t.hasWords[s] {
			return fmt.Errorf("%w: state %q has no word distribution", ErrResourceMalformed, t.states[s])
		}
		return nil
	}
	if err = check(t.body); err != nil {
		return nil, err
	}
	for c := 0; c < t.numCols; c++ {
		if State(c) == t.stop {
			continue
		}
		if err = check(State(c)); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Names returns the designated state labels.
func (t *Tables) Names() StateNames { return t.names }

// States returns every known state name, emission columns first.
func (t *Tables) States() []string {
	return append([]string(nil), t.states...)
}

// Lookup resolves a state name.
func (t *Tables) Lookup(name string) (State, bool) {
	s, ok := t.stateIndex[name]
	return s, ok
}

// Name returns the label of s.
func (t *Tables) Name(s State) string {
	if s < 0 || int(s) >= len(t.states) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return t.states[s]
}

// Words returns the cleaned word distribution of s.
func (t *Tables) Words(s State) (WordDistribution, bool) {
	if s < 0 || int(s) >= len(t.states) {
		return WordDistribution{}, false
	}
	return t.words[s], t.hasWords[s]
}

// StopReachable reports whether the stop state can be reached from the body
// state. Zero-sum emission rows count as edges to every column, matching the
// uniform fallback taken at sampling time. When this returns false, assembling
// a quote never terminates unless a step cap is configured.
func (t *Tables) StopReachable() bool {
	seen := make([]bool, len(t.states))
	queue := []State{t.body}
	seen[t.body] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if s == t.stop {
			return true
		}
		row := t.emission[s]
		if row == nil {
			continue
		}
		zero := true
		for _, p := range row {
			if p > 0 {
				zero = false
				break
			}
		}
		for c, p := range row {
			if (p > 0 || zero) && !seen[c] {
				seen[c] = true
				queue = append(queue, State(c))
			}
		}
	}
	return false
}
