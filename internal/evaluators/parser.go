package evaluators

import (
	"strconv"
	"strings"

	"github.com/hrtools/hr-matcher/internal/domain"
)

const (
	defaultScore      = 0.0
	defaultConfidence = 0.8
)

// Response section headers the model is instructed to emit.
const (
	keyScore           = "SCORE:"
	keyConfidence      = "CONFIDENCE:"
	keyFindings        = "FINDINGS:"
	keyStrengths       = "STRENGTHS:"
	keyWeaknesses      = "WEAKNESSES:"
	keyRecommendations = "RECOMMENDATIONS:"
)

// parsedReport is the structured form of a model assessment.
type parsedReport struct {
	Score           float64
	Confidence      float64
	Findings        string
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
}

// parseReport extracts the fixed-key sections from a model response. The
// parser is tolerant: a missing or malformed section falls back to its
// default instead of failing the whole assessment. Lines that follow the
// FINDINGS header without starting a new section are treated as findings
// continuation.
func parseReport(text string) parsedReport {
	report := parsedReport{
		Score:           defaultScore,
		Confidence:      defaultConfidence,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
	}

	var findings []string
	section := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, keyScore):
			section = ""
			if v, err := strconv.ParseFloat(sectionValue(line, keyScore), 64); err == nil {
				report.Score = domain.Clamp01(v)
			}
		case strings.HasPrefix(upper, keyConfidence):
			section = ""
			if v, err := strconv.ParseFloat(sectionValue(line, keyConfidence), 64); err == nil {
				report.Confidence = domain.Clamp01(v)
			}
		case strings.HasPrefix(upper, keyFindings):
			section = keyFindings
			if v := sectionValue(line, keyFindings); v != "" {
				findings = append(findings, v)
			}
		case strings.HasPrefix(upper, keyStrengths):
			section = keyStrengths
			report.Strengths = append(report.Strengths, splitItems(sectionValue(line, keyStrengths))...)
		case strings.HasPrefix(upper, keyWeaknesses):
			section = keyWeaknesses
			report.Weaknesses = append(report.Weaknesses, splitItems(sectionValue(line, keyWeaknesses))...)
		case strings.HasPrefix(upper, keyRecommendations):
			section = keyRecommendations
			report.Recommendations = append(report.Recommendations, splitItems(sectionValue(line, keyRecommendations))...)
		default:
			switch section {
			case keyFindings:
				findings = append(findings, line)
			case keyStrengths:
				if item := listItem(line); item != "" {
					report.Strengths = append(report.Strengths, item)
				}
			case keyWeaknesses:
				if item := listItem(line); item != "" {
					report.Weaknesses = append(report.Weaknesses, item)
				}
			case keyRecommendations:
				if item := listItem(line); item != "" {
					report.Recommendations = append(report.Recommendations, item)
				}
			}
		}
	}

	report.Findings = strings.Join(findings, " ")

	return report
}

func sectionValue(line, key string) string {
	return strings.TrimSpace(line[len(key):])
}

// splitItems breaks a pipe-delimited item list carried on the key line
// itself, the primary form of the response contract.
func splitItems(value string) []string {
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

// listItem strips a leading bullet marker. Unmarked lines inside list
// sections are accepted as items too, models are not reliable about
// formatting.
func listItem(line string) string {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	return strings.TrimSpace(line)
}
