package sonnet

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

const (
	// DefaultMinLength is the smallest accepted quote length, in characters.
	DefaultMinLength = 100
	// DefaultMaxLength is the largest accepted quote length, in characters.
	DefaultMaxLength = 110
	// DefaultMaxAttempts caps how many quotes GenerateQuote assembles.
	DefaultMaxAttempts = 100
)

// FallbackKind identifies which non-error fallback path a sampler took.
type FallbackKind int

const (
	// FallbackUnknownWord: the previous word has no transition row, a uniform
	// row over every transition table word was substituted.
	FallbackUnknownWord FallbackKind = iota + 1
	// FallbackZeroWeights: the candidate transition weights summed to zero,
	// candidates were drawn uniformly.
	FallbackZeroWeights
	// FallbackNoOverlap: no word of the state follows the previous word, the
	// state's own distribution was used.
	FallbackNoOverlap
	// FallbackZeroEmission: the emission row summed to zero, the next state was
	// drawn uniformly over all states.
	FallbackZeroEmission
)

func (k FallbackKind) String() string {
	switch k {
	case FallbackUnknownWord:
		return "unknown_word"
	case FallbackZeroWeights:
		return "zero_weights"
	case FallbackNoOverlap:
		return "no_overlap"
	case FallbackZeroEmission:
		return "zero_emission"
	default:
		return "unknown"
	}
}

// FallbackEvent describes one fallback taken while sampling.
type FallbackEvent struct {
	Kind  FallbackKind
	State string
	// Word is the previous word for word fallbacks, empty for emission ones.
	Word string
}

// generatorOptions is filled in by GeneratorOption functions.
type generatorOptions struct {
	minLength   int
	maxLength   int
	maxAttempts int
	maxSteps    int
	logger      *slog.Logger
	hook        func(FallbackEvent)
	formatter   *Formatter
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorOptions)

// WithLengthWindow sets the inclusive character-length window a quote must
// fall in to be accepted.
func WithLengthWindow(minLength, maxLength int) GeneratorOption {
	return func(o *generatorOptions) {
		o.minLength = minLength
		o.maxLength = maxLength
	}
}

// WithMaxAttempts sets how many quotes are assembled before giving up on the
// length window and returning the last one.
func WithMaxAttempts(n int) GeneratorOption {
	return func(o *generatorOptions) { o.maxAttempts = n }
}

// WithMaxSteps caps the number of words a single quote may take to reach the
// stop state. Zero, the default, means no cap: an emission table whose stop
// state is unreachable then never terminates.
func WithMaxSteps(n int) GeneratorOption {
	return func(o *generatorOptions) { o.maxSteps = n }
}

// WithLogger sets the logger. By default all logs are discarded.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(o *generatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFallbackHook registers a callback invoked every time a sampler takes a
// fallback path. The callback must not block; it does not alter sampling.
func WithFallbackHook(hook func(FallbackEvent)) GeneratorOption {
	return func(o *generatorOptions) { o.hook = hook }
}

// WithFormatter replaces the default Formatter.
func WithFormatter(f *Formatter) GeneratorOption {
	return func(o *generatorOptions) {
		if f != nil {
			o.formatter = f
		}
	}
}

// Generator samples quotes from a Tables value. It holds no mutable state and
// is safe for concurrent use as long as every call gets its own Rand.
type Generator struct {
	tables    *Tables
	opts      generatorOptions
	logger    *slog.Logger
	formatter *Formatter
}

// NewGenerator returns a Generator over tables. It logs a warning when the
// stop state is unreachable from the body state and no step cap is set.
func NewGenerator(tables *Tables, opts ...GeneratorOption) (*Generator, error) {
	if tables == nil {
		return nil, errors.New("sonnet: nil tables")
	}
	options := generatorOptions{
		minLength:   DefaultMinLength,
		maxLength:   DefaultMaxLength,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		formatter:   NewFormatter(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.maxAttempts < 1 {
		return nil, errors.New("sonnet: max attempts must be at least 1")
	}
	if options.minLength > options.maxLength {
		return nil, errors.New("sonnet: min length exceeds max length")
	}
	if options.maxSteps < 0 {
		return nil, errors.New("sonnet: max steps must not be negative")
	}

	g := &Generator{
		tables:    tables,
		opts:      options,
		logger:    options.logger,
		formatter: options.formatter,
	}
	if options.maxSteps == 0 && !tables.StopReachable() {
		g.logger.Warn("Stop state is unreachable from body state, generation will not terminate",
			slog.String("body", tables.Name(tables.body)),
			slog.String("stop", tables.Name(tables.stop)),
		)
	}
	return g, nil
}

// Tables returns the model the generator samples from.
func (g *Generator) Tables() *Tables { return g.tables }

// Format renders quote with the generator's Formatter.
func (g *Generator) Format(quote []string) string { return g.formatter.Format(quote) }

func (g *Generator) fallback(ctx context.Context, ev FallbackEvent) {
	g.logger.DebugContext(ctx, "Sampling fallback",
		slog.String("kind", ev.Kind.String()),
		slog.String("state", ev.State),
		slog.String("word", ev.Word),
	)
	if g.opts.hook != nil {
		g.opts.hook(ev)
	}
}
