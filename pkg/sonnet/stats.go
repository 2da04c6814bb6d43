package sonnet

// Stats holds aggregated statistics for a loaded model.
type Stats struct {
	States          int            // The number of known states, emission columns and row-only labels
	EmissionColumns int            // The number of states the emission table can transition into
	StateWords      map[string]int // A mapping of state names to the size of their cleaned vocabulary
	TransitionRows  int            // The number of words with a transition row
	TransitionCols  int            // The number of words a transition can lead to
	TransitionLinks int            // The number of nonzero word -> word transitions
	StopReachable   bool           // Whether the stop state can be reached from the body state
}

// Stats returns a snapshot of statistics for t.
func (t *Tables) Stats() *Stats {
	stateWords := make(map[string]int)
	for s, ok := range t.hasWords {
		if ok {
			stateWords[t.states[s]] = len(t.words[s].Words)
		}
	}
	return &Stats{
		States:          len(t.states),
		EmissionColumns: t.numCols,
		StateWords:      stateWords,
		TransitionRows:  len(t.transitions.Rows),
		TransitionCols:  len(t.transitions.Cols),
		TransitionLinks: t.transitions.NonZero(),
		StopReachable:   t.StopReachable(),
	}
}
