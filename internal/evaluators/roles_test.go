package evaluators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/domain"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string, _ float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func findEvaluator(t *testing.T, roster []Evaluator, name string) Evaluator {
	t.Helper()
	for _, e := range roster {
		if e.Name() == name {
			return e
		}
	}
	t.Fatalf("evaluator %q not in roster", name)
	return nil
}

func TestRosterHasTenEvaluators(t *testing.T) {
	roster := Roster(&stubGenerator{}, zap.NewNop())
	if len(roster) != 10 {
		t.Fatalf("expected 10 evaluators, got %d", len(roster))
	}
}

func TestRosterRelevance(t *testing.T) {
	roster := Roster(&stubGenerator{}, zap.NewNop())

	devopsVacancy := domain.NewVacancy("Platform Engineer", "Run our Kubernetes clusters and CI/CD pipelines")
	plainVacancy := domain.NewVacancy("Content Writer", "Write marketing copy for our landing pages")
	seniorVacancy := domain.NewVacancy("Backend Lead", "Own the service landscape end to end")
	seniorVacancy.ExperienceYears = 6

	cases := []struct {
		name    string
		vacancy *domain.Vacancy
		want    bool
	}{
		{"DevOps Expert", devopsVacancy, true},
		{"DevOps Expert", plainVacancy, false},
		{"Database Expert", plainVacancy, false},
		{"Python Expert", plainVacancy, false},
		{"GitHub Analyst", seniorVacancy, true},
		{"GitHub Analyst", plainVacancy, false},
		{"Architecture Expert", seniorVacancy, true},
		{"Architecture Expert", plainVacancy, false},
		{"Security Expert", plainVacancy, false},
		{"Soft Skills Evaluator", plainVacancy, true},
		{"Test Results Analyst", plainVacancy, true},
		{"Achievement Verifier", plainVacancy, true},
		{"Communication Evaluator", plainVacancy, true},
	}

	for _, tc := range cases {
		e := findEvaluator(t, roster, tc.name)
		if got := e.Relevant(tc.vacancy); got != tc.want {
			t.Errorf("%s.Relevant(%q) = %v, want %v", tc.name, tc.vacancy.Title, got, tc.want)
		}
	}
}

func TestArchitectureRelevantByKeyword(t *testing.T) {
	roster := Roster(&stubGenerator{}, zap.NewNop())
	e := findEvaluator(t, roster, "Architecture Expert")

	vacancy := domain.NewVacancy("Junior Developer", "Help us split the monolith into microservices")
	if !e.Relevant(vacancy) {
		t.Fatal("expected architecture evaluator to be relevant for microservices vacancy")
	}
}

func TestRoleAnalyzeParsesResponse(t *testing.T) {
	gen := &stubGenerator{response: "SCORE: 0.7\nCONFIDENCE: 0.85\nFINDINGS: Decent fit.\nSTRENGTHS:\n- Docker"}
	roster := Roster(gen, zap.NewNop())
	e := findEvaluator(t, roster, "DevOps Expert")

	vacancy := domain.NewVacancy("Platform Engineer", "Docker and Kubernetes work")
	candidate := domain.NewCandidate("Alice", "alice@example.com", "Runs container platforms")

	result, err := e.Analyze(context.Background(), candidate, vacancy, Context{VectorScore: 0.6, ScreeningScore: 0.5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Name != "DevOps Expert" || result.Type != "devops" {
		t.Fatalf("unexpected identity: %q/%q", result.Name, result.Type)
	}
	if result.Score != 0.7 || result.Confidence != 0.85 {
		t.Fatalf("unexpected scores: %v/%v", result.Score, result.Confidence)
	}
	if result.Findings != "Decent fit." {
		t.Fatalf("unexpected findings: %q", result.Findings)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 generation, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "Platform Engineer") || !strings.Contains(prompt, "Alice") {
		t.Fatalf("prompt is missing vacancy or candidate text: %q", prompt)
	}
	if !strings.Contains(prompt, "SCORE:") {
		t.Fatalf("prompt is missing the response format: %q", prompt)
	}
}

func TestRoleAnalyzeIncludesExtraContext(t *testing.T) {
	gen := &stubGenerator{response: "SCORE: 0.5"}
	roster := Roster(gen, zap.NewNop())
	e := findEvaluator(t, roster, "GitHub Analyst")

	vacancy := domain.NewVacancy("Backend Engineer", "Build the core services")
	candidate := domain.NewCandidate("Bob", "bob@example.com", "Backend developer for a decade")

	if _, err := e.Analyze(context.Background(), candidate, vacancy, Context{GitHubInfo: "42 public repos, 1200 stars"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(gen.prompts[0], "42 public repos") {
		t.Fatalf("expected github info in prompt: %q", gen.prompts[0])
	}
}

func TestRoleAnalyzePropagatesGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exhausted")}
	roster := Roster(gen, zap.NewNop())
	e := findEvaluator(t, roster, "Communication Evaluator")

	vacancy := domain.NewVacancy("Any Role", "Some long enough description")
	candidate := domain.NewCandidate("Carol", "carol@example.com", "A fine candidate overall")

	if _, err := e.Analyze(context.Background(), candidate, vacancy, Context{}); err == nil {
		t.Fatal("expected error from generator to propagate")
	}
}
