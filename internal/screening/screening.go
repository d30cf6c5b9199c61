// Package screening computes the cheap heuristic pre-filter score for a
// (candidate, vacancy) pair before any expensive model calls are made.
package screening

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/skills"
	"github.com/hrtools/hr-matcher/internal/vectorstore"
)

// Composite score weights. The blend is part of the scoring contract and must
// stay in sync with the decision thresholds below.
const (
	weightVector     = 0.4
	weightHardSkills = 0.3
	weightExperience = 0.2
	weightLocation   = 0.1

	maxKeywordBoost = 0.2

	passThreshold  = 0.6
	maybeThreshold = 0.4

	experienceTolerance = 1
)

// highSignalKeywords is the static dictionary used to derive keywords from
// vacancy text when the vacancy carries no explicit skill list.
var highSignalKeywords = []string{
	"senior", "lead", "architect", "microservices", "cloud",
	"aws", "azure", "gcp", "kubernetes", "docker",
	"ci/cd", "agile", "scrum", "tdd", "rest",
	"api", "database", "sql", "nosql",
	"python", "java", "javascript", "react", "angular", "vue",
}

// Engine screens candidates against a vacancy. When a skill engine is
// provided, hard-skill comparison is semantic with an exact-match fallback;
// otherwise it is a plain set intersection.
type Engine struct {
	skills *skills.Engine
	logger *zap.Logger
}

// NewEngine creates a screening engine. skillEngine may be nil to disable
// semantic matching.
func NewEngine(skillEngine *skills.Engine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{skills: skillEngine, logger: logger}
}

// Screen computes the composite screening score and decision for one pair.
// It is deterministic given identical embeddings and has no side effects.
func (e *Engine) Screen(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, vectorScore float64) *domain.ScreeningResult {
	hardSkills := e.hardSkillsScore(ctx, candidate.Skills, vacancy.Skills)
	experience := experienceScore(candidate.ExperienceYears, vacancy.ExperienceYears, experienceTolerance)
	location := locationScore(candidate.Location, vacancy.Location)

	vacancyText := vacancy.Description + " " + strings.Join(append(append([]string{}, vacancy.Skills...), vacancy.Requirements...), " ")
	boost := keywordBoost(candidate.CombinedText(), vacancyText, vacancy.Skills)

	score := domain.Clamp01(
		weightVector*vectorScore +
			weightHardSkills*hardSkills +
			weightExperience*experience +
			weightLocation*location +
			boost,
	)

	matched := 0
	if len(vacancy.Skills) > 0 {
		matched = int(hardSkills * float64(len(vacancy.Skills)))
	}

	diff := candidate.ExperienceYears - vacancy.ExperienceYears
	if diff < 0 {
		diff = -diff
	}

	result := &domain.ScreeningResult{
		Score:           score,
		VectorScore:     vectorScore,
		HardSkillsScore: hardSkills,
		ExperienceScore: experience,
		LocationScore:   location,
		KeywordBoost:    boost,
		Decision:        decide(score),
		Details: domain.ScreeningDetails{
			CandidateSkills: len(candidate.Skills),
			RequiredSkills:  len(vacancy.Skills),
			SkillsMatched:   matched,
			ExperienceDiff:  diff,
		},
	}

	e.logger.Debug("screening result",
		zap.String("candidate", candidate.Name),
		zap.Float64("score", score),
		zap.String("decision", result.Decision),
	)

	return result
}

func decide(score float64) string {
	switch {
	case score >= passThreshold:
		return domain.DecisionPass
	case score >= maybeThreshold:
		return domain.DecisionMaybe
	default:
		return domain.DecisionReject
	}
}

// hardSkillsScore is the semantic match fraction plus a +0.05 bonus per exact
// case-insensitive match, capped at 1.0. Empty requirements score 1.0. Any
// embedding failure falls back to plain set intersection.
func (e *Engine) hardSkillsScore(ctx context.Context, candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 1.0
	}

	if e.skills != nil {
		report, err := e.skills.Compare(ctx, requiredSkills, candidateSkills, skills.DefaultThreshold)
		if err == nil {
			score := report.MatchScore
			if exact := skills.ExactIntersection(candidateSkills, requiredSkills); len(exact) > 0 {
				score += float64(len(exact)) * 0.05
			}
			return domain.Clamp01(score)
		}

		e.logger.Warn("semantic skill matching failed, using basic matching", zap.Error(err))
	}

	return skills.ExactMatch(requiredSkills, candidateSkills).MatchScore
}

// experienceScore rewards exact matches and decays asymmetrically: an
// over-qualified candidate loses 0.1 per excess year beyond tolerance (floor
// 0.6), an under-qualified one loses 0.15 per missing year (floor 0.3).
func experienceScore(candidateYears, requiredYears, tolerance int) float64 {
	if requiredYears == 0 {
		return 1.0
	}

	diff := candidateYears - requiredYears
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff == 0:
		return 1.0
	case diff <= tolerance:
		return 0.8
	case candidateYears > requiredYears:
		return max(0.6, 1.0-float64(diff-tolerance)*0.1)
	default:
		return max(0.3, 1.0-float64(diff-tolerance)*0.15)
	}
}

// remoteMarkers and relocationMarkers carry both English and Russian forms
// because profiles in the corpus mix the two languages.
var (
	remoteMarkers     = []string{"remote", "удален"}
	relocationMarkers = []string{"relocation", "релокация"}
)

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// locationScore never penalizes missing data: either side empty scores 1.0.
func locationScore(candidateLocation, vacancyLocation string) float64 {
	if vacancyLocation == "" || candidateLocation == "" {
		return 1.0
	}

	candidate := strings.ToLower(candidateLocation)
	vacancy := strings.ToLower(vacancyLocation)

	switch {
	case candidate == vacancy:
		return 1.0
	case containsAny(vacancy, remoteMarkers):
		return 1.0
	case containsAny(candidate, remoteMarkers):
		return 0.9
	case strings.Contains(vacancy, candidate) || strings.Contains(candidate, vacancy):
		return 0.9
	case containsAny(candidate, relocationMarkers):
		return 0.7
	default:
		return 0.5
	}
}

// keywordBoost scales the fraction of high-signal keywords found in the
// candidate text to at most maxKeywordBoost. When the vacancy supplies no
// skill list, keywords are extracted from the vacancy text via the static
// dictionary.
func keywordBoost(candidateText, vacancyText string, keywords []string) float64 {
	candidate := strings.ToLower(candidateText)
	vacancy := strings.ToLower(vacancyText)

	if len(keywords) == 0 {
		keywords = extractKeywords(vacancy)
	}
	if len(keywords) == 0 {
		return 0.0
	}

	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(candidate, strings.ToLower(keyword)) {
			matches++
		}
	}

	boost := float64(matches) / float64(len(keywords)) * maxKeywordBoost
	if boost > maxKeywordBoost {
		boost = maxKeywordBoost
	}
	return boost
}

func extractKeywords(text string) []string {
	found := []string{}
	for _, keyword := range highSignalKeywords {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// Screened couples a retrieval hit with the candidate rebuilt from its
// payload and the screening outcome.
type Screened struct {
	Result    vectorstore.SearchResult
	Candidate *domain.Candidate
	Screening *domain.ScreeningResult
}

// FilterCandidates screens every retrieval hit, drops those below minScore,
// sorts the remainder by descending screening score and truncates to topK.
func (e *Engine) FilterCandidates(ctx context.Context, results []vectorstore.SearchResult, vacancy *domain.Vacancy, minScore float64, topK int) []Screened {
	e.logger.Info("screening candidates", zap.Int("count", len(results)))

	screened := make([]Screened, 0, len(results))
	for _, result := range results {
		candidate := CandidateFromResult(result)
		outcome := e.Screen(ctx, candidate, vacancy, result.Score)

		if outcome.Score < minScore {
			continue
		}

		screened = append(screened, Screened{
			Result:    result,
			Candidate: candidate,
			Screening: outcome,
		})
	}

	sort.SliceStable(screened, func(i, j int) bool {
		return screened[i].Screening.Score > screened[j].Screening.Score
	})

	if topK > 0 && len(screened) > topK {
		screened = screened[:topK]
	}

	e.logger.Info("screening complete",
		zap.Int("passed", len(screened)),
		zap.Int("initial", len(results)),
	)

	return screened
}
