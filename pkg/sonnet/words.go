package sonnet

import "context"

// SampleInitial draws a word from the word distribution of s.
func (g *Generator) SampleInitial(rng Rand, s State) string {
	dist := g.tables.words[s]
	return StripSuffix(dist.Words[weightedIndex(rng.Float64(), dist.Probs)])
}

// SampleNext draws the word following previous while in state s.
//
// Candidates are the words of s with nonzero probability that also have a
// nonzero transition from previous, weighted by that transition. When
// previous has no transition row, a uniform row over every transition table
// word stands in for it. When the candidate weights sum to zero they are drawn
// uniformly, and when there are no candidates at all the transition table is
// ignored and the word is drawn from the distribution of s alone.
func (g *Generator) SampleNext(ctx context.Context, rng Rand, s State, previous string) string {
	dist := g.tables.words[s]
	tr := g.tables.transitions
	prev := StripSuffix(previous)

	var weight func(word string) float64
	if r, ok := tr.RowIndex(prev); ok {
		row := tr.row(r)
		weight = func(word string) float64 {
			c, ok := tr.ColIndex(word)
			if !ok {
				return 0
			}
			return row[c]
		}
	} else {
		g.fallback(ctx, FallbackEvent{Kind: FallbackUnknownWord, State: g.tables.Name(s), Word: prev})
		weight = func(word string) float64 {
			if _, ok := tr.ColIndex(word); ok {
				return 1
			}
			return 0
		}
	}

	var candidates []string
	var weights []float64
	for i, word := range dist.Words {
		if dist.Probs[i] == 0 {
			continue
		}
		if w := weight(word); w != 0 {
			candidates = append(candidates, word)
			weights = append(weights, w)
		}
	}

	if len(candidates) > 0 {
		if sum(weights) > 0 {
			return StripSuffix(candidates[weightedIndex(rng.Float64(), weights)])
		}
		// Unreachable with validated tables: candidates carry nonzero,
		// non-negative weights.
		g.fallback(ctx, FallbackEvent{Kind: FallbackZeroWeights, State: g.tables.Name(s), Word: prev})
		return StripSuffix(candidates[uniformIndex(rng.Float64(), len(candidates))])
	}

	g.fallback(ctx, FallbackEvent{Kind: FallbackNoOverlap, State: g.tables.Name(s), Word: prev})
	return StripSuffix(dist.Words[weightedIndex(rng.Float64(), dist.Probs)])
}
