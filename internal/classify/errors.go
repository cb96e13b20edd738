package classify

import "errors"

var (
	// ErrMalformedResponse is returned when the model's reply cannot be
	// parsed as the expected JSON structure. The affected batch is
	// skipped; the pipeline does not fail.
	ErrMalformedResponse = errors.New("malformed classification response")

	// ErrEmptyTaxonomy is returned when classification is attempted
	// before the taxonomy was seeded.
	ErrEmptyTaxonomy = errors.New("interest taxonomy is empty")
)
