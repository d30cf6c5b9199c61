// Package evaluators holds the panel of role-scoped reviewers that assess a
// candidate against a vacancy from different professional angles.
package evaluators

import (
	"context"

	"github.com/hrtools/hr-matcher/internal/domain"
)

// Context carries the pipeline signals an evaluator may fold into its
// assessment. All fields are optional.
type Context struct {
	VectorScore    float64
	ScreeningScore float64
	GitHubInfo     string
	TestResults    string
	Achievements   string
}

// Evaluator assesses one professional dimension of a candidate.
type Evaluator interface {
	// Name identifies the evaluator in reports and logs.
	Name() string
	// Description states the dimension the evaluator covers.
	Description() string
	// Relevant reports whether the vacancy warrants this evaluator's
	// participation.
	Relevant(vacancy *domain.Vacancy) bool
	// Analyze produces a scored assessment of the candidate.
	Analyze(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, ec Context) (*domain.EvaluatorResult, error)
}
