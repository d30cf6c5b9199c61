// Package matching orchestrates the full pipeline: vector retrieval, heuristic
// screening, optional reranking and the evaluator panel, blended into ranked
// match results.
package matching

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/ai"
	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/evaluators"
	"github.com/hrtools/hr-matcher/internal/panel"
	"github.com/hrtools/hr-matcher/internal/rerank"
	"github.com/hrtools/hr-matcher/internal/screening"
	"github.com/hrtools/hr-matcher/internal/store"
	"github.com/hrtools/hr-matcher/internal/vectorstore"
)

//go:embed prompt.md
var pairPromptTemplate string

// Blend weights. The panel path leans on the evaluator verdict, the heuristic
// path on screening; candidate-to-vacancy matching averages vector and model
// scores evenly.
const (
	panelWeightScreening = 0.3
	panelWeightVector    = 0.2
	panelWeightAgents    = 0.5

	heuristicWeightScreening = 0.6
	heuristicWeightVector    = 0.4

	defaultTopK            = 5
	defaultAIAnalysisLimit = 2
	defaultMinScreening    = 0.4
	heuristicMinScreening  = 0.3

	pairTemperature = 0.3
)

// Options tune the pipeline.
type Options struct {
	// TopK is the number of matches returned per query.
	TopK int
	// AIAnalysisLimit caps how many screened candidates get a full panel run.
	AIAnalysisLimit int
	// MinScreeningScore drops candidates below it after screening on the
	// panel path.
	MinScreeningScore float64
	// UseAI selects between the panel path and the heuristic-only path.
	UseAI bool
	// Sequential makes the panel run its evaluators one by one.
	Sequential bool
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.AIAnalysisLimit <= 0 {
		o.AIAnalysisLimit = defaultAIAnalysisLimit
	}
	if o.MinScreeningScore <= 0 {
		o.MinScreeningScore = defaultMinScreening
	}
	return o
}

// Service is the matching orchestrator. The reranker, panel and generator are
// optional: without them the service degrades to heuristic-only matching. The
// pacer is the same limiter the panel coordinator uses, so every model call
// in the process draws from one quota.
type Service struct {
	store    *store.Store
	index    vectorstore.Index
	screener *screening.Engine
	reranker *rerank.Reranker
	panel    *panel.Coordinator
	gen      ai.Generator
	pacer    panel.Pacer
	logger   *zap.Logger
	opts     Options
}

// NewService wires the pipeline together.
func NewService(st *store.Store, index vectorstore.Index, screener *screening.Engine, reranker *rerank.Reranker, coordinator *panel.Coordinator, gen ai.Generator, pacer panel.Pacer, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    st,
		index:    index,
		screener: screener,
		reranker: reranker,
		panel:    coordinator,
		gen:      gen,
		pacer:    pacer,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

func (s *Service) pace(ctx context.Context) error {
	if s.pacer == nil {
		return nil
	}
	return s.pacer.Wait(ctx)
}

// AddVacancy validates, stores and indexes a vacancy.
func (s *Service) AddVacancy(ctx context.Context, v *domain.Vacancy) error {
	if err := s.store.CreateVacancy(v); err != nil {
		return fmt.Errorf("store vacancy: %w", err)
	}

	metadata := map[string]string{
		"title":            v.Title,
		"location":         v.Location,
		"experience_years": fmt.Sprintf("%d", v.ExperienceYears),
	}
	if err := s.index.Add(ctx, vectorstore.Vacancies, v.ID.String(), v.ToText(), metadata); err != nil {
		return fmt.Errorf("index vacancy: %w", err)
	}

	s.logger.Info("vacancy added", zap.String("id", v.ID.String()), zap.String("title", v.Title))
	return nil
}

// AddCandidate validates, stores and indexes a candidate. The payload carries
// the fields screening needs so searches can be screened without store
// lookups.
func (s *Service) AddCandidate(ctx context.Context, c *domain.Candidate) error {
	if err := s.store.CreateCandidate(c); err != nil {
		return fmt.Errorf("store candidate: %w", err)
	}

	metadata := map[string]string{
		"name":             c.Name,
		"email":            c.Email,
		"skills":           joinList(c.Skills, ","),
		"experience":       joinList(c.Experience, "|"),
		"experience_years": fmt.Sprintf("%d", c.ExperienceYears),
		"location":         c.Location,
	}
	if err := s.index.Add(ctx, vectorstore.Candidates, c.ID.String(), c.ToText(), metadata); err != nil {
		return fmt.Errorf("index candidate: %w", err)
	}

	s.logger.Info("candidate added", zap.String("id", c.ID.String()), zap.String("name", c.Name))
	return nil
}

// FindCandidates returns the best candidates for the vacancy, ranked by the
// blended score. The panel path is used when enabled and wired, otherwise
// matching stays heuristic and makes no model calls at all.
func (s *Service) FindCandidates(ctx context.Context, vacancyID uuid.UUID) ([]domain.MatchResult, error) {
	vacancy, err := s.store.Vacancy(vacancyID)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	if s.opts.UseAI && s.panel != nil {
		return s.findCandidatesWithPanel(ctx, vacancy)
	}
	return s.findCandidatesHeuristic(ctx, vacancy)
}

// findCandidatesWithPanel retrieves wide, screens hard and spends the model
// budget on the few best screened candidates.
func (s *Service) findCandidatesWithPanel(ctx context.Context, vacancy *domain.Vacancy) ([]domain.MatchResult, error) {
	query := vacancy.ToText()
	results, err := s.index.Search(ctx, vectorstore.Candidates, query, s.opts.TopK*5)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	screened := s.screener.FilterCandidates(ctx, results, vacancy, s.opts.MinScreeningScore, s.opts.TopK)
	selected := s.panel.Select(vacancy)

	matches := make([]domain.MatchResult, 0, len(screened))
	for i, sc := range screened {
		details := matchDetails(sc)

		var score float64
		var explanation string
		if i < s.opts.AIAnalysisLimit {
			report := s.panel.AnalyzeCandidate(ctx, sc.Candidate, vacancy, selected, evaluators.Context{
				VectorScore:    sc.Result.Score,
				ScreeningScore: sc.Screening.Score,
			}, s.opts.Sequential)

			score = domain.Clamp01(
				panelWeightScreening*sc.Screening.Score +
					panelWeightVector*sc.Result.Score +
					panelWeightAgents*report.OverallScore,
			)
			explanation = report.Summary
			details["agent_score"] = report.OverallScore
			details["total_agents"] = report.TotalAgents
			details["evaluators"] = report.Results
		} else {
			score = heuristicScore(sc)
			explanation = explainHeuristic(heuristicScore(sc), sc.Screening)
		}

		matches = append(matches, domain.MatchResult{
			EntityID:    parseID(sc.Result.ID),
			Score:       score,
			Explanation: explanation,
			Details:     details,
		})
	}

	sortMatches(matches)
	return truncate(matches, s.opts.TopK), nil
}

// findCandidatesHeuristic ranks on retrieval, optional reranking and
// screening alone. It never calls a language model. Retrieval is as wide as
// the panel path; reranking narrows the window before screening.
func (s *Service) findCandidatesHeuristic(ctx context.Context, vacancy *domain.Vacancy) ([]domain.MatchResult, error) {
	query := vacancy.ToText()
	results, err := s.index.Search(ctx, vectorstore.Candidates, query, s.opts.TopK*5)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	if s.reranker != nil {
		results = s.reranker.Rerank(ctx, query, results, s.opts.TopK*2)
	}

	screened := s.screener.FilterCandidates(ctx, results, vacancy, heuristicMinScreening, s.opts.TopK)

	matches := make([]domain.MatchResult, 0, len(screened))
	for _, sc := range screened {
		score := heuristicScore(sc)
		matches = append(matches, domain.MatchResult{
			EntityID:    parseID(sc.Result.ID),
			Score:       score,
			Explanation: explainHeuristic(score, sc.Screening),
			Details:     matchDetails(sc),
		})
	}

	sortMatches(matches)
	return truncate(matches, s.opts.TopK), nil
}

// FindVacancies returns the best vacancies for a candidate. Each retrieved
// vacancy is assessed pairwise by the generator when one is wired; a failed
// assessment degrades that entry to its vector score instead of failing the
// query.
func (s *Service) FindVacancies(ctx context.Context, candidateID uuid.UUID) ([]domain.MatchResult, error) {
	candidate, err := s.store.Candidate(candidateID)
	if err != nil {
		return nil, fmt.Errorf("find vacancies: %w", err)
	}

	results, err := s.index.Search(ctx, vectorstore.Vacancies, candidate.ToText(), s.opts.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	matches := make([]domain.MatchResult, 0, len(results))
	for i, result := range results {
		match := domain.MatchResult{
			EntityID:    parseID(result.ID),
			Score:       result.Score,
			Explanation: "Ranked by semantic similarity only.",
			Details: map[string]any{
				"vector_score": result.Score,
				"title":        result.Metadata["title"],
			},
		}

		// Only the first topK hits can make the final list, so the model
		// budget is spent on those alone.
		if s.gen != nil && i < s.opts.TopK {
			assessment, err := s.assessPair(ctx, candidate, result.Document)
			if err != nil {
				s.logger.Warn("pairwise assessment failed", zap.Error(err))
			} else {
				match.Score = domain.Clamp01((result.Score + assessment.Score) / 2)
				match.Explanation = assessment.Explanation
				match.Details["ai_score"] = assessment.Score
				match.Details["strengths"] = assessment.Strengths
				match.Details["weaknesses"] = assessment.Weaknesses
			}
		}

		matches = append(matches, match)
	}

	sortMatches(matches)
	return truncate(matches, s.opts.TopK), nil
}

func (s *Service) assessPair(ctx context.Context, candidate *domain.Candidate, vacancyText string) (*pairAssessment, error) {
	if err := s.pace(ctx); err != nil {
		return nil, fmt.Errorf("pairwise assessment: %w", err)
	}

	prompt := fmt.Sprintf(pairPromptTemplate, vacancyText, candidate.ToText())

	response, err := s.gen.GenerateContent(ctx, prompt, pairTemperature)
	if err != nil {
		return nil, fmt.Errorf("pairwise assessment: %w", err)
	}

	return parsePairAssessment(response), nil
}

// BulkEntry is the outcome for one vacancy in a bulk run. Error carries the
// failure text when matching that vacancy failed; other vacancies are
// unaffected.
type BulkEntry struct {
	VacancyID    uuid.UUID            `json:"vacancy_id"`
	VacancyTitle string               `json:"vacancy_title"`
	Matches      []domain.MatchResult `json:"matches"`
	Error        string               `json:"error,omitempty"`
}

// MatchAll runs candidate matching for every stored vacancy. Failures are
// isolated per vacancy.
func (s *Service) MatchAll(ctx context.Context) []BulkEntry {
	vacancies := s.store.Vacancies()
	sort.Slice(vacancies, func(i, j int) bool {
		if vacancies[i].CreatedAt.Equal(vacancies[j].CreatedAt) {
			return vacancies[i].Title < vacancies[j].Title
		}
		return vacancies[i].CreatedAt.Before(vacancies[j].CreatedAt)
	})

	entries := make([]BulkEntry, 0, len(vacancies))
	for _, vacancy := range vacancies {
		entry := BulkEntry{
			VacancyID:    vacancy.ID,
			VacancyTitle: vacancy.Title,
		}

		matches, err := s.FindCandidates(ctx, vacancy.ID)
		if err != nil {
			s.logger.Warn("bulk matching failed for vacancy",
				zap.String("vacancy", vacancy.Title),
				zap.Error(err),
			)
			entry.Error = err.Error()
		} else {
			entry.Matches = matches
		}

		entries = append(entries, entry)
	}

	s.logger.Info("bulk matching complete", zap.Int("vacancies", len(entries)))
	return entries
}

// RankRow is one line of the flattened bulk report.
type RankRow struct {
	VacancyTitle  string  `json:"vacancy_title"`
	Rank          int     `json:"rank"`
	CandidateName string  `json:"candidate_name"`
	Score         float64 `json:"score"`
}

// RankRows flattens bulk entries into ranked rows, one per match. Ranks are
// 1-based within each vacancy. Failed vacancies contribute no rows.
func RankRows(entries []BulkEntry) []RankRow {
	rows := []RankRow{}
	for _, entry := range entries {
		for i, match := range entry.Matches {
			name, _ := match.Details["candidate_name"].(string)
			rows = append(rows, RankRow{
				VacancyTitle:  entry.VacancyTitle,
				Rank:          i + 1,
				CandidateName: name,
				Score:         match.Score,
			})
		}
	}
	return rows
}

func heuristicScore(sc screening.Screened) float64 {
	return domain.Clamp01(heuristicWeightScreening*sc.Screening.Score + heuristicWeightVector*sc.Result.Score)
}

// explainHeuristic produces the tiered human-readable verdict for matches
// that got no model assessment.
func explainHeuristic(score float64, sc *domain.ScreeningResult) string {
	skills := fmt.Sprintf("%d of %d required skills matched", sc.Details.SkillsMatched, sc.Details.RequiredSkills)

	switch {
	case score >= 0.8:
		return "Excellent match: " + skills + ", strong profile alignment."
	case score >= 0.6:
		return "Good match: " + skills + "."
	case score >= 0.4:
		return "Possible match: " + skills + ", review recommended."
	default:
		return "Weak match: " + skills + "."
	}
}

func matchDetails(sc screening.Screened) map[string]any {
	return map[string]any{
		"candidate_name":  sc.Candidate.Name,
		"vector_score":    sc.Result.Score,
		"rerank_score":    sc.Result.RerankScore,
		"screening_score": sc.Screening.Score,
		"decision":        sc.Screening.Decision,
	}
}

func sortMatches(matches []domain.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

func truncate(matches []domain.MatchResult, topK int) []domain.MatchResult {
	if topK > 0 && len(matches) > topK {
		return matches[:topK]
	}
	return matches
}

func parseID(id string) uuid.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

func joinList(items []string, sep string) string {
	return strings.Join(items, sep)
}
