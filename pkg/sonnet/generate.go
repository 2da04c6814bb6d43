package sonnet

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// Result is the outcome of GenerateQuote.
type Result struct {
	Quote    []string
	Attempts int
	// Length is the summed character length of the words in Quote.
	Length int
	// InWindow is false when every attempt missed the length window and Quote
	// is simply the last one assembled.
	InWindow bool
}

// QuoteLength returns the number of characters across all words of quote,
// separators excluded.
func QuoteLength(quote []string) int {
	n := 0
	for _, word := range quote {
		n += utf8.RuneCountInString(word)
	}
	return n
}

// GenerateQuote assembles quotes until one falls inside the length window or
// the attempt cap is reached. The window is a soft preference: once the cap is
// exhausted the last quote is returned as is, with InWindow false.
func (g *Generator) GenerateQuote(ctx context.Context, rng Rand) (Result, error) {
	var res Result
	for res.Attempts < g.opts.maxAttempts {
		quote, err := g.Assemble(ctx, rng)
		if err != nil {
			return Result{}, err
		}
		res.Attempts++
		res.Quote = quote
		res.Length = QuoteLength(quote)

		g.logger.DebugContext(ctx, "Quote assembled",
			slog.Int("attempt", res.Attempts),
			slog.Int("length", res.Length),
			slog.Int("words", len(quote)),
		)

		if res.Length >= g.opts.minLength && res.Length <= g.opts.maxLength {
			res.InWindow = true
			return res, nil
		}
	}

	g.logger.DebugContext(ctx, "Attempt cap reached, returning last quote",
		slog.Int("attempts", res.Attempts),
		slog.Int("length", res.Length),
		slog.Int("min_length", g.opts.minLength),
		slog.Int("max_length", g.opts.maxLength),
	)
	return res, nil
}

// Generate produces one finished text: a length-constrained quote, capitalized
// and joined by the generator's Formatter.
func (g *Generator) Generate(ctx context.Context, rng Rand) (string, error) {
	res, err := g.GenerateQuote(ctx, rng)
	if err != nil {
		return "", err
	}
	return g.Format(res.Quote), nil
}
