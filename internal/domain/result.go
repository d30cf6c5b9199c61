package domain

import "github.com/google/uuid"

// Screening decision tags.
const (
	DecisionPass   = "PASS"
	DecisionMaybe  = "MAYBE"
	DecisionReject = "REJECT"
)

// ScreeningResult holds the composite pre-filter score for one
// (candidate, vacancy) pair together with its components. It is derived per
// query and never persisted.
type ScreeningResult struct {
	Score           float64          `json:"screening_score"`
	VectorScore     float64          `json:"vector_score"`
	HardSkillsScore float64          `json:"hard_skills_score"`
	ExperienceScore float64          `json:"experience_score"`
	LocationScore   float64          `json:"location_score"`
	KeywordBoost    float64          `json:"keyword_boost"`
	Decision        string           `json:"decision"`
	Details         ScreeningDetails `json:"details"`
}

// ScreeningDetails records the raw counts behind the component scores.
type ScreeningDetails struct {
	CandidateSkills int `json:"candidate_skills"`
	RequiredSkills  int `json:"required_skills"`
	SkillsMatched   int `json:"skills_matched"`
	ExperienceDiff  int `json:"experience_diff"`
}

// EvaluatorResult is the outcome of a single evaluator's analysis of one
// candidate. Produced per call, never persisted.
type EvaluatorResult struct {
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Score           float64        `json:"score"`
	Confidence      float64        `json:"confidence"`
	Findings        string         `json:"findings"`
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Recommendations []string       `json:"recommendations"`
	Details         map[string]any `json:"details,omitempty"`
}

// MatchResult is one ranked entry returned by the orchestrator. Details carry
// every intermediate score and the evaluator results for audit and display.
type MatchResult struct {
	EntityID    uuid.UUID      `json:"entity_id"`
	Score       float64        `json:"score"`
	Explanation string         `json:"explanation"`
	Details     map[string]any `json:"details"`
}

// Clamp01 bounds a score to [0, 1]. Every score field in the pipeline passes
// through it before leaving a component.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
