package evaluators

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/ai"
	"github.com/hrtools/hr-matcher/internal/domain"
)

const evaluationTemperature = 0.3

const responseFormat = `Respond strictly in this format:
SCORE: <number between 0.0 and 1.0>
CONFIDENCE: <number between 0.0 and 1.0>
FINDINGS: <short free-form analysis>
STRENGTHS: <strength> | <strength>
WEAKNESSES: <weakness> | <weakness>
RECOMMENDATIONS: <recommendation> | <recommendation>`

// role is a single panel member driven by a prompt template. All panel
// evaluators share this mechanic and differ in focus, relevance rule and
// extra context they consume.
type role struct {
	name        string
	evalType    string
	description string
	focus       string
	relevant    func(*domain.Vacancy) bool
	extra       func(Context) string

	gen    ai.Generator
	logger *zap.Logger
}

func (r *role) Name() string        { return r.name }
func (r *role) Description() string { return r.description }

func (r *role) Relevant(vacancy *domain.Vacancy) bool {
	if r.relevant == nil {
		return true
	}
	return r.relevant(vacancy)
}

func (r *role) Analyze(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, ec Context) (*domain.EvaluatorResult, error) {
	prompt := r.buildPrompt(candidate, vacancy, ec)

	r.logger.Debug("running evaluator",
		zap.String("evaluator", r.name),
		zap.String("candidate", candidate.Name),
	)

	response, err := r.gen.GenerateContent(ctx, prompt, evaluationTemperature)
	if err != nil {
		return nil, fmt.Errorf("%s evaluation: %w", r.name, err)
	}

	report := parseReport(response)

	return &domain.EvaluatorResult{
		Name:            r.name,
		Type:            r.evalType,
		Score:           report.Score,
		Confidence:      report.Confidence,
		Findings:        report.Findings,
		Strengths:       report.Strengths,
		Weaknesses:      report.Weaknesses,
		Recommendations: report.Recommendations,
		Details: map[string]any{
			"vector_score":    ec.VectorScore,
			"screening_score": ec.ScreeningScore,
		},
	}, nil
}

func (r *role) buildPrompt(candidate *domain.Candidate, vacancy *domain.Vacancy, ec Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a %s.\n%s\n\n", r.description, r.focus)
	fmt.Fprintf(&b, "VACANCY:\n%s\n\n", vacancy.ToText())
	fmt.Fprintf(&b, "CANDIDATE:\n%s\n\n", candidate.ToText())

	if r.extra != nil {
		if extra := strings.TrimSpace(r.extra(ec)); extra != "" {
			b.WriteString(extra)
			b.WriteString("\n\n")
		}
	}

	b.WriteString(responseFormat)

	return b.String()
}

// vacancyMentions reports whether the vacancy text contains any of the
// given markers, case-insensitively.
func vacancyMentions(vacancy *domain.Vacancy, markers ...string) bool {
	text := strings.ToLower(vacancy.ToText())
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Roster assembles the full evaluator panel. Which members participate in a
// given assessment is decided per vacancy through Relevant.
func Roster(gen ai.Generator, logger *zap.Logger) []Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}

	roles := []*role{
		{
			name:        "DevOps Expert",
			evalType:    "devops",
			description: "senior DevOps engineer reviewing infrastructure and delivery skills",
			focus:       "Assess the candidate's experience with containers, orchestration, CI/CD pipelines and cloud platforms against what the vacancy requires.",
			relevant: func(v *domain.Vacancy) bool {
				return vacancyMentions(v, "docker", "kubernetes", "ci/cd", "ci-cd", "devops", "aws", "azure", "gcp", "jenkins", "gitlab", "terraform")
			},
		},
		{
			name:        "Database Expert",
			evalType:    "database",
			description: "database specialist reviewing data layer expertise",
			focus:       "Assess the candidate's experience with relational and non-relational databases, query design, ORMs and data modelling against what the vacancy requires.",
			relevant: func(v *domain.Vacancy) bool {
				return vacancyMentions(v, "sql", "database", "postgresql", "mysql", "mongodb", "redis", "orm")
			},
		},
		{
			name:        "Python Expert",
			evalType:    "python",
			description: "senior Python engineer reviewing language proficiency",
			focus:       "Assess the candidate's depth in Python: frameworks, idioms, testing habits and the ecosystem knowledge the vacancy calls for.",
			relevant: func(v *domain.Vacancy) bool {
				return vacancyMentions(v, "python")
			},
		},
		{
			name:        "GitHub Analyst",
			evalType:    "github",
			description: "open source activity analyst",
			focus:       "Assess the candidate's public code footprint: repositories, contribution history and code quality signals, as far as the provided profile information allows.",
			relevant: func(v *domain.Vacancy) bool {
				return v.ExperienceYears >= 3
			},
			extra: func(ec Context) string {
				if ec.GitHubInfo == "" {
					return ""
				}
				return "GITHUB PROFILE:\n" + ec.GitHubInfo
			},
		},
		{
			name:        "Test Results Analyst",
			evalType:    "tests",
			description: "technical assessment reviewer",
			focus:       "Assess the candidate's performance on technical tests and coding assignments. If no results are provided, judge testability of the claimed skills instead and lower your confidence.",
			extra: func(ec Context) string {
				if ec.TestResults == "" {
					return ""
				}
				return "TEST RESULTS:\n" + ec.TestResults
			},
		},
		{
			name:        "Achievement Verifier",
			evalType:    "achievements",
			description: "background reviewer verifying claimed accomplishments",
			focus:       "Assess how credible and relevant the candidate's stated achievements are: look for specifics, measurable outcomes and consistency with the rest of the resume.",
			extra: func(ec Context) string {
				if ec.Achievements == "" {
					return ""
				}
				return "CLAIMED ACHIEVEMENTS:\n" + ec.Achievements
			},
		},
		{
			name:        "Soft Skills Evaluator",
			evalType:    "soft_skills",
			description: "HR specialist evaluating interpersonal qualities",
			focus:       "Assess communication style, teamwork, leadership signals and cultural fit indicators visible in the resume.",
		},
		{
			name:        "Security Expert",
			evalType:    "security",
			description: "application security engineer",
			focus:       "Assess the candidate's grasp of secure development: authentication, authorization, cryptography and common vulnerability classes, against what the vacancy requires.",
			relevant: func(v *domain.Vacancy) bool {
				return vacancyMentions(v, "security", "authentication", "authorization", "oauth", "jwt", "encryption")
			},
		},
		{
			name:        "Architecture Expert",
			evalType:    "architecture",
			description: "software architect reviewing system design ability",
			focus:       "Assess the candidate's experience designing systems: service decomposition, scalability trade-offs and technology choices appropriate to the vacancy.",
			relevant: func(v *domain.Vacancy) bool {
				if v.ExperienceYears >= 5 {
					return true
				}
				return vacancyMentions(v, "architect", "design", "microservices")
			},
		},
		{
			name:        "Communication Evaluator",
			evalType:    "communication",
			description: "reviewer of written communication quality",
			focus:       "Assess how clearly the candidate presents themselves: structure, precision and readability of the resume as a proxy for workplace communication.",
		},
	}

	out := make([]Evaluator, 0, len(roles))
	for _, r := range roles {
		r.gen = gen
		r.logger = logger
		out = append(out, r)
	}
	return out
}
