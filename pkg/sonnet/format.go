package sonnet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Formatter turns a quote into its final text and supplies the sentence
// terminator appended in the sentence-end state.
type Formatter struct {
	separator  string
	terminator string
}

// FormatOption configures a Formatter.
type FormatOption func(*Formatter)

// WithSeparator sets the string used to join words.
// Default: " "
func WithSeparator(sep string) FormatOption {
	return func(f *Formatter) {
		f.separator = sep
	}
}

// WithTerminator sets the string appended to the word produced in the
// sentence-end state.
// Default: ". \n"
func WithTerminator(term string) FormatOption {
	return func(f *Formatter) {
		f.terminator = term
	}
}

// NewFormatter creates a formatter with default settings, which can be
// overridden by providing one or more FormatOption functions.
func NewFormatter(opts ...FormatOption) *Formatter {
	f := &Formatter{
		separator:  " ",
		terminator: ". \n",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Terminate appends the sentence terminator to word.
func (f *Formatter) Terminate(word string) string {
	return word + f.terminator
}

// Format upper-cases the first character of the first word and joins the
// words with the separator. quote is not modified.
func (f *Formatter) Format(quote []string) string {
	if len(quote) == 0 {
		return ""
	}
	words := make([]string, len(quote))
	copy(words, quote)
	words[0] = capitalize(words[0])
	return strings.Join(words, f.separator)
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
