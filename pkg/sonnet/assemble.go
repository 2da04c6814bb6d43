package sonnet

import (
	"context"
	"fmt"
	"log/slog"
)

// Assemble walks the model once, from the start state to the stop state, and
// returns the words produced on the way. The first word comes from the start
// state; every later word is drawn from the current state given the previous
// word, and the word produced in the sentence-end state carries the sentence
// terminator. The stop state itself produces nothing.
//
// Termination depends only on the emission table. Without WithMaxSteps a
// table whose stop state is unreachable makes Assemble loop forever.
func (g *Generator) Assemble(ctx context.Context, rng Rand) ([]string, error) {
	t := g.tables

	state := t.start
	quote := []string{g.SampleInitial(rng, state)}
	g.logger.DebugContext(ctx, "First word sampled",
		slog.String("state", t.Name(state)),
		slog.String("word", quote[0]),
	)
	state = t.body

	for steps := 0; ; steps++ {
		if g.opts.maxSteps > 0 && steps >= g.opts.maxSteps {
			return nil, fmt.Errorf("%w: %d words without reaching %q", ErrStepLimit, steps, t.Name(t.stop))
		}

		word := g.SampleNext(ctx, rng, state, quote[len(quote)-1])
		if state == t.sentenceEnd {
			word = g.formatter.Terminate(word)
		}
		quote = append(quote, word)

		next := g.NextState(ctx, rng, state)
		g.logger.DebugContext(ctx, "State transition",
			slog.String("from", t.Name(state)),
			slog.String("to", t.Name(next)),
			slog.String("word", word),
		)
		state = next

		if state == t.stop {
			return quote, nil
		}
	}
}
