// Package panel coordinates the evaluator roster: selecting members per
// vacancy, pacing their model calls and aggregating their verdicts.
package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hrtools/hr-matcher/internal/ai"
	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/evaluators"
)

const summaryTemperature = 0.4

const fallbackSummary = "Panel assessment completed. See individual evaluator findings for details."

// Pacer throttles outbound model calls. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Report is the aggregated outcome of one panel run.
type Report struct {
	Results      []*domain.EvaluatorResult `json:"results"`
	OverallScore float64                   `json:"overall_score"`
	Summary      string                    `json:"summary"`
	TotalAgents  int                       `json:"total_agents"`
}

// Coordinator runs evaluator panels against candidates.
type Coordinator struct {
	roster []evaluators.Evaluator
	gen    ai.Generator
	pacer  Pacer
	logger *zap.Logger
}

// New creates a coordinator over the given roster. The pacer may be nil when
// no throttling is wanted.
func New(roster []evaluators.Evaluator, gen ai.Generator, pacer Pacer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		roster: roster,
		gen:    gen,
		pacer:  pacer,
		logger: logger,
	}
}

// Select returns the roster members whose relevance rule matches the vacancy.
func (c *Coordinator) Select(vacancy *domain.Vacancy) []evaluators.Evaluator {
	selected := make([]evaluators.Evaluator, 0, len(c.roster))
	for _, e := range c.roster {
		if e.Relevant(vacancy) {
			selected = append(selected, e)
		}
	}

	c.logger.Debug("selected evaluators",
		zap.String("vacancy", vacancy.Title),
		zap.Int("count", len(selected)),
	)

	return selected
}

// AnalyzeCandidate runs the given evaluators against the candidate and
// aggregates their verdicts. A failing evaluator is logged and skipped, the
// panel verdict is built from whoever answered. With sequential set the
// evaluators run one by one, otherwise they fan out concurrently; both paths
// and the summary call respect the pacer.
func (c *Coordinator) AnalyzeCandidate(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, selected []evaluators.Evaluator, ec evaluators.Context, sequential bool) *Report {
	if len(selected) == 0 {
		return &Report{
			Results:      []*domain.EvaluatorResult{},
			OverallScore: 0.0,
			Summary:      "No evaluators were selected for this vacancy.",
		}
	}

	var results []*domain.EvaluatorResult
	if sequential {
		results = c.runSequential(ctx, candidate, vacancy, selected, ec)
	} else {
		results = c.runConcurrent(ctx, candidate, vacancy, selected, ec)
	}

	report := &Report{
		Results:      results,
		OverallScore: aggregateScore(results),
		TotalAgents:  len(results),
	}
	report.Summary = c.summarize(ctx, candidate, vacancy, report)

	c.logger.Info("panel assessment complete",
		zap.String("candidate", candidate.Name),
		zap.Int("evaluators", len(results)),
		zap.Float64("score", report.OverallScore),
	)

	return report
}

func (c *Coordinator) runSequential(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, selected []evaluators.Evaluator, ec evaluators.Context) []*domain.EvaluatorResult {
	results := make([]*domain.EvaluatorResult, 0, len(selected))
	for _, e := range selected {
		if err := c.pace(ctx); err != nil {
			c.logger.Warn("panel interrupted", zap.Error(err))
			break
		}

		result, err := e.Analyze(ctx, candidate, vacancy, ec)
		if err != nil {
			c.logger.Warn("evaluator failed",
				zap.String("evaluator", e.Name()),
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}
	return results
}

func (c *Coordinator) runConcurrent(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, selected []evaluators.Evaluator, ec evaluators.Context) []*domain.EvaluatorResult {
	var mu sync.Mutex
	results := make([]*domain.EvaluatorResult, 0, len(selected))

	group, gctx := errgroup.WithContext(ctx)
	for _, e := range selected {
		group.Go(func() error {
			if err := c.pace(gctx); err != nil {
				return err
			}

			result, err := e.Analyze(gctx, candidate, vacancy, ec)
			if err != nil {
				c.logger.Warn("evaluator failed",
					zap.String("evaluator", e.Name()),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		c.logger.Warn("panel interrupted", zap.Error(err))
	}

	return results
}

func (c *Coordinator) pace(ctx context.Context) error {
	if c.pacer == nil {
		return nil
	}
	return c.pacer.Wait(ctx)
}

// aggregateScore weighs each evaluator's score by its confidence. When every
// evaluator reported zero confidence the scores are averaged unweighted
// instead of dividing by zero.
func aggregateScore(results []*domain.EvaluatorResult) float64 {
	if len(results) == 0 {
		return 0.0
	}

	var weighted, confidence, plain float64
	for _, r := range results {
		weighted += r.Score * r.Confidence
		confidence += r.Confidence
		plain += r.Score
	}

	if confidence == 0 {
		return domain.Clamp01(plain / float64(len(results)))
	}
	return domain.Clamp01(weighted / confidence)
}

func (c *Coordinator) summarize(ctx context.Context, candidate *domain.Candidate, vacancy *domain.Vacancy, report *Report) string {
	if c.gen == nil || len(report.Results) == 0 {
		return fallbackSummary
	}

	if err := c.pace(ctx); err != nil {
		c.logger.Warn("summary generation interrupted", zap.Error(err))
		return fallbackSummary
	}

	summary, err := c.gen.GenerateContent(ctx, summaryPrompt(candidate, vacancy, report), summaryTemperature)
	if err != nil {
		c.logger.Warn("summary generation failed", zap.Error(err))
		return fallbackSummary
	}

	return strings.TrimSpace(summary)
}

func summaryPrompt(candidate *domain.Candidate, vacancy *domain.Vacancy, report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the panel assessment of candidate %s for the vacancy %q in 2-3 sentences.\n", candidate.Name, vacancy.Title)
	fmt.Fprintf(&b, "Overall score: %.2f\n\nEvaluator verdicts:\n", report.OverallScore)

	for _, r := range report.Results {
		fmt.Fprintf(&b, "- %s: score %.2f, confidence %.2f", r.Name, r.Score, r.Confidence)
		if r.Findings != "" {
			fmt.Fprintf(&b, ", findings: %s", r.Findings)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nReply with the summary only, no preamble.")

	return b.String()
}
