package screening

import (
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/vectorstore"
)

// resultMeta is the candidate payload carried through the vector index.
// Skills are comma-joined and experience entries pipe-joined on write; see
// the matching package for the encoding side.
type resultMeta struct {
	Name            string `mapstructure:"name"`
	Email           string `mapstructure:"email"`
	Skills          string `mapstructure:"skills"`
	Experience      string `mapstructure:"experience"`
	ExperienceYears string `mapstructure:"experience_years"`
	Location        string `mapstructure:"location"`
}

// CandidateFromResult rebuilds a candidate from a retrieval hit's payload so
// screening can run on search results alone, without a store lookup. Missing
// fields default to harmless values.
func CandidateFromResult(result vectorstore.SearchResult) *domain.Candidate {
	var meta resultMeta
	if err := mapstructure.Decode(result.Metadata, &meta); err != nil {
		meta = resultMeta{}
	}

	if meta.Name == "" {
		meta.Name = "Unknown"
	}
	if meta.Email == "" {
		meta.Email = "unknown@example.com"
	}

	years, _ := strconv.Atoi(strings.TrimSpace(meta.ExperienceYears))

	candidate := domain.NewCandidate(meta.Name, meta.Email, result.Document)
	candidate.Skills = splitList(meta.Skills, ",")
	candidate.Experience = splitList(meta.Experience, "|")
	candidate.ExperienceYears = years
	candidate.Location = meta.Location

	return candidate
}

func splitList(joined, sep string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}

	parts := strings.Split(joined, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
