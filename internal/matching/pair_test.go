package matching

import (
	"reflect"
	"testing"
)

func TestParsePairAssessment(t *testing.T) {
	text := `SCORE: 0.75
EXPLANATION: Solid backend background.
The stack overlaps well.
STRENGTHS:
- Go
- Docker
WEAKNESSES:
- No Kubernetes`

	got := parsePairAssessment(text)

	if got.Score != 0.75 {
		t.Fatalf("unexpected score: %v", got.Score)
	}
	if got.Explanation != "Solid backend background. The stack overlaps well." {
		t.Fatalf("unexpected explanation: %q", got.Explanation)
	}
	if !reflect.DeepEqual(got.Strengths, []string{"Go", "Docker"}) {
		t.Fatalf("unexpected strengths: %v", got.Strengths)
	}
	if !reflect.DeepEqual(got.Weaknesses, []string{"No Kubernetes"}) {
		t.Fatalf("unexpected weaknesses: %v", got.Weaknesses)
	}
}

func TestParsePairAssessmentPipeDelimitedLists(t *testing.T) {
	got := parsePairAssessment("SCORE: 0.6\nSTRENGTHS: Go | Docker\nWEAKNESSES: No Kubernetes | No cloud")

	if !reflect.DeepEqual(got.Strengths, []string{"Go", "Docker"}) {
		t.Fatalf("unexpected strengths: %v", got.Strengths)
	}
	if !reflect.DeepEqual(got.Weaknesses, []string{"No Kubernetes", "No cloud"}) {
		t.Fatalf("unexpected weaknesses: %v", got.Weaknesses)
	}
}

func TestParsePairAssessmentDefaults(t *testing.T) {
	got := parsePairAssessment("the model free-styled instead of following the format")

	if got.Score != 0.5 {
		t.Fatalf("expected neutral default score, got %v", got.Score)
	}
	if got.Explanation == "" {
		t.Fatal("expected a non-empty fallback explanation")
	}
}

func TestParsePairAssessmentClampsScore(t *testing.T) {
	got := parsePairAssessment("SCORE: 8.5")
	if got.Score != 1.0 {
		t.Fatalf("expected score clamped to 1.0, got %v", got.Score)
	}
}
