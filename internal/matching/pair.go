package matching

import (
	"strconv"
	"strings"

	"github.com/hrtools/hr-matcher/internal/domain"
)

// Response section headers of the pairwise assessment prompt.
const (
	pairKeyScore       = "SCORE:"
	pairKeyExplanation = "EXPLANATION:"
	pairKeyStrengths   = "STRENGTHS:"
	pairKeyWeaknesses  = "WEAKNESSES:"
)

// pairDefaultScore is used when the model ignores the format. A neutral
// midpoint keeps a single malformed response from sinking an otherwise good
// vector match.
const pairDefaultScore = 0.5

// pairAssessment is the structured form of a candidate-to-vacancy model
// verdict.
type pairAssessment struct {
	Score       float64
	Explanation string
	Strengths   []string
	Weaknesses  []string
}

// parsePairAssessment extracts the fixed-key sections from a pairwise model
// response. Like the evaluator report parser it is tolerant: malformed
// sections fall back to defaults, explanation lines accumulate until the next
// header.
func parsePairAssessment(text string) *pairAssessment {
	assessment := &pairAssessment{
		Score:      pairDefaultScore,
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	var explanation []string
	section := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, pairKeyScore):
			section = ""
			if v, err := strconv.ParseFloat(strings.TrimSpace(line[len(pairKeyScore):]), 64); err == nil {
				assessment.Score = domain.Clamp01(v)
			}
		case strings.HasPrefix(upper, pairKeyExplanation):
			section = pairKeyExplanation
			if v := strings.TrimSpace(line[len(pairKeyExplanation):]); v != "" {
				explanation = append(explanation, v)
			}
		case strings.HasPrefix(upper, pairKeyStrengths):
			section = pairKeyStrengths
			assessment.Strengths = append(assessment.Strengths, pairSplitItems(line[len(pairKeyStrengths):])...)
		case strings.HasPrefix(upper, pairKeyWeaknesses):
			section = pairKeyWeaknesses
			assessment.Weaknesses = append(assessment.Weaknesses, pairSplitItems(line[len(pairKeyWeaknesses):])...)
		default:
			switch section {
			case pairKeyExplanation:
				explanation = append(explanation, line)
			case pairKeyStrengths:
				if item := pairListItem(line); item != "" {
					assessment.Strengths = append(assessment.Strengths, item)
				}
			case pairKeyWeaknesses:
				if item := pairListItem(line); item != "" {
					assessment.Weaknesses = append(assessment.Weaknesses, item)
				}
			}
		}
	}

	assessment.Explanation = strings.Join(explanation, " ")
	if assessment.Explanation == "" {
		assessment.Explanation = "Assessed by the matching model."
	}

	return assessment
}

// pairSplitItems breaks a pipe-delimited item list carried on the key line
// itself, the primary form of the response contract.
func pairSplitItems(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	items := []string{}
	for _, item := range strings.Split(value, "|") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func pairListItem(line string) string {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	return strings.TrimSpace(line)
}
