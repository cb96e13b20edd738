package model

import "time"

// InterestCategory is one entry in the fixed interest taxonomy. The
// taxonomy is seeded once at startup and forms a two-level tree: top
// level categories have no parent, subcategories reference a top level
// category. Category names are unique and matched case-sensitively by
// the classifier.
type InterestCategory struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"category_name"`
	ParentID    int64  `json:"parent_category_id,omitempty"` // 0 for top level
	Description string `json:"description"`
}

// InterestScore assigns an account to a taxonomy category with a model
// confidence in [0,1]. One row exists per (account, category); a later
// classification overwrites the prior confidence and timestamp
// unconditionally. No history is retained.
type InterestScore struct {
	AccountID  string    `json:"user_id"`
	CategoryID int64     `json:"category_id"`
	Confidence float64   `json:"confidence_score"`
	CreatedAt  time.Time `json:"created_at"`
}
