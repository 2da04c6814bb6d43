package sonnet

import "errors"

var (
	// ErrResourceNotFound is returned when a required input resource is missing.
	ErrResourceNotFound = errors.New("sonnet: resource not found")

	// ErrResourceMalformed is returned when a resource does not parse into the
	// expected shape, references an unknown state, or a word distribution has
	// zero total probability mass.
	ErrResourceMalformed = errors.New("sonnet: resource malformed")

	// ErrStepLimit is returned by Assemble when a step cap is configured with
	// WithMaxSteps and the terminal state was not reached within it.
	ErrStepLimit = errors.New("sonnet: step limit exceeded")
)
