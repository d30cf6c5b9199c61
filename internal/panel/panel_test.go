package panel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/evaluators"
)

type stubEvaluator struct {
	name     string
	relevant bool
	result   *domain.EvaluatorResult
	err      error

	mu    sync.Mutex
	calls int
}

func (s *stubEvaluator) Name() string                        { return s.name }
func (s *stubEvaluator) Description() string                 { return s.name }
func (s *stubEvaluator) Relevant(*domain.Vacancy) bool       { return s.relevant }
func (s *stubEvaluator) Analyze(context.Context, *domain.Candidate, *domain.Vacancy, evaluators.Context) (*domain.EvaluatorResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.result, s.err
}

type stubSummarizer struct {
	response string
	err      error
	prompts  []string
}

func (s *stubSummarizer) GenerateContent(_ context.Context, prompt string, _ float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return nil
}

func evalResult(name string, score, confidence float64) *domain.EvaluatorResult {
	return &domain.EvaluatorResult{Name: name, Score: score, Confidence: confidence}
}

func testPair() (*domain.Candidate, *domain.Vacancy) {
	return domain.NewCandidate("Alice", "alice@example.com", "Experienced engineer"),
		domain.NewVacancy("Backend Engineer", "Build and run backend services")
}

func TestSelectFiltersByRelevance(t *testing.T) {
	relevant := &stubEvaluator{name: "a", relevant: true}
	irrelevant := &stubEvaluator{name: "b", relevant: false}

	c := New([]evaluators.Evaluator{relevant, irrelevant}, nil, nil, zap.NewNop())
	_, vacancy := testPair()

	selected := c.Select(vacancy)
	if len(selected) != 1 || selected[0].Name() != "a" {
		t.Fatalf("unexpected selection: %v", selected)
	}
}

func TestAnalyzeCandidateWeightedAggregation(t *testing.T) {
	evals := []evaluators.Evaluator{
		&stubEvaluator{name: "a", relevant: true, result: evalResult("a", 0.8, 1.0)},
		&stubEvaluator{name: "b", relevant: true, result: evalResult("b", 0.4, 0.5)},
	}
	gen := &stubSummarizer{response: "A solid candidate."}
	pacer := &countingPacer{}

	c := New(evals, gen, pacer, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, true)

	// (0.8*1.0 + 0.4*0.5) / (1.0 + 0.5)
	want := (0.8 + 0.2) / 1.5
	if diff := report.OverallScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected overall score: %v, want %v", report.OverallScore, want)
	}
	if report.TotalAgents != 2 {
		t.Fatalf("expected 2 agents, got %d", report.TotalAgents)
	}
	if report.Summary != "A solid candidate." {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
	// two evaluator calls plus the summary call
	if pacer.waits != 3 {
		t.Fatalf("expected 3 pacer waits, got %d", pacer.waits)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Backend Engineer") {
		t.Fatalf("unexpected summary prompt: %v", gen.prompts)
	}
}

func TestAnalyzeCandidatePacesEveryModelCall(t *testing.T) {
	evals := []evaluators.Evaluator{
		&stubEvaluator{name: "a", relevant: true, result: evalResult("a", 0.5, 1.0)},
	}
	gen := &stubSummarizer{response: "ok"}
	pacer := &countingPacer{}

	c := New(evals, gen, pacer, zap.NewNop())
	candidate, vacancy := testPair()

	c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, true)

	if want := len(evals) + len(gen.prompts); pacer.waits != want {
		t.Fatalf("expected %d pacer waits, got %d", want, pacer.waits)
	}
}

func TestAnalyzeCandidateZeroConfidenceFallsBackToMean(t *testing.T) {
	evals := []evaluators.Evaluator{
		&stubEvaluator{name: "a", relevant: true, result: evalResult("a", 0.6, 0)},
		&stubEvaluator{name: "b", relevant: true, result: evalResult("b", 0.2, 0)},
	}

	c := New(evals, &stubSummarizer{response: "ok"}, nil, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, true)

	if diff := report.OverallScore - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected unweighted mean 0.4, got %v", report.OverallScore)
	}
}

func TestAnalyzeCandidateSkipsFailedEvaluators(t *testing.T) {
	broken := &stubEvaluator{name: "broken", relevant: true, err: errors.New("model down")}
	working := &stubEvaluator{name: "working", relevant: true, result: evalResult("working", 0.9, 1.0)}
	evals := []evaluators.Evaluator{broken, working}

	c := New(evals, &stubSummarizer{response: "ok"}, nil, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, true)

	if report.TotalAgents != 1 {
		t.Fatalf("expected 1 agent in report, got %d", report.TotalAgents)
	}
	if report.OverallScore != 0.9 {
		t.Fatalf("unexpected overall score: %v", report.OverallScore)
	}
}

func TestAnalyzeCandidateConcurrent(t *testing.T) {
	evals := []evaluators.Evaluator{
		&stubEvaluator{name: "a", relevant: true, result: evalResult("a", 0.5, 1.0)},
		&stubEvaluator{name: "b", relevant: true, result: evalResult("b", 0.7, 1.0)},
		&stubEvaluator{name: "c", relevant: true, err: errors.New("boom")},
	}
	pacer := &countingPacer{}

	c := New(evals, &stubSummarizer{response: "ok"}, pacer, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, false)

	if report.TotalAgents != 2 {
		t.Fatalf("expected 2 agents, got %d", report.TotalAgents)
	}
	if diff := report.OverallScore - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected overall score: %v", report.OverallScore)
	}
	// three evaluator calls plus the summary call
	if pacer.waits != 4 {
		t.Fatalf("expected 4 pacer waits, got %d", pacer.waits)
	}
}

func TestAnalyzeCandidateNoEvaluators(t *testing.T) {
	c := New(nil, &stubSummarizer{response: "never used"}, nil, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, nil, evaluators.Context{}, true)

	if report.OverallScore != 0.0 {
		t.Fatalf("expected zero score, got %v", report.OverallScore)
	}
	if !strings.Contains(report.Summary, "No evaluators") {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
}

func TestAnalyzeCandidateSummaryFallback(t *testing.T) {
	evals := []evaluators.Evaluator{
		&stubEvaluator{name: "a", relevant: true, result: evalResult("a", 0.5, 1.0)},
	}
	gen := &stubSummarizer{err: errors.New("quota exhausted")}

	c := New(evals, gen, nil, zap.NewNop())
	candidate, vacancy := testPair()

	report := c.AnalyzeCandidate(context.Background(), candidate, vacancy, evals, evaluators.Context{}, true)

	if report.Summary != fallbackSummary {
		t.Fatalf("expected fallback summary, got %q", report.Summary)
	}
}
