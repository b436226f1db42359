package domain

// Verdict is the outcome of validating a route against minimums. It is
// recomputed on every check and never persisted.
type Verdict struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	// Confidence is the 0-100 cross-validation score at departure.
	Confidence int `json:"confidence"`
}

// Invalid builds a failing verdict.
func Invalid(confidence int, violations ...string) Verdict {
	return Verdict{Valid: false, Violations: violations, Confidence: confidence}
}
