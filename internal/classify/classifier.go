package classify

import "context"

// Subject is one account presented to the model for classification.
type Subject struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Request is the payload sent to the model: the category taxonomy and
// the batch of subjects to classify.
type Request struct {
	Taxonomy []string  `json:"taxonomy"`
	Subjects []Subject `json:"subjects"`
}

// Result is one classification in the model's reply. Category must be
// an exact, case-sensitive taxonomy name; results naming unknown
// categories are discarded.
type Result struct {
	Username   string  `json:"username"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Response is the model's reply to a Request.
type Response struct {
	Results []Result `json:"results"`
}

// Classifier turns a batch of subjects into category scores. The
// production implementation calls an LLM; tests substitute a canned one.
type Classifier interface {
	// Classify sends one batch. A malformed model reply returns
	// ErrMalformedResponse.
	Classify(ctx context.Context, req Request) (*Response, error)
}
