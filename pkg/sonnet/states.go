package sonnet

import "context"

// NextState draws the state following current from its emission row. A row
// summing to zero falls back to a uniform draw over every emission column.
// current must not be the stop state, which is absorbing.
func (g *Generator) NextState(ctx context.Context, rng Rand, current State) State {
	row := g.tables.emission[current]
	if sum(row) > 0 {
		return State(weightedIndex(rng.Float64(), row))
	}
	g.fallback(ctx, FallbackEvent{Kind: FallbackZeroEmission, State: g.tables.Name(current)})
	return State(uniformIndex(rng.Float64(), g.tables.numCols))
}
