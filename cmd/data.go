package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/domain"
	"github.com/hrtools/hr-matcher/internal/matching"
)

// loadData reads the vacancy and candidate JSON files and feeds them through
// the service so they are validated, stored and indexed.
func loadData(ctx context.Context, svc *matching.Service, config *Config, logger *zap.Logger) error {
	vacancies, err := readJSON[domain.Vacancy](config.Vacancies)
	if err != nil {
		return fmt.Errorf("reading vacancies: %w", err)
	}

	candidates, err := readJSON[domain.Candidate](config.Candidates)
	if err != nil {
		return fmt.Errorf("reading candidates: %w", err)
	}

	for _, v := range vacancies {
		normalizeVacancy(v)
		if err := svc.AddVacancy(ctx, v); err != nil {
			return fmt.Errorf("adding vacancy %q: %w", v.Title, err)
		}
	}

	for _, c := range candidates {
		normalizeCandidate(c)
		if err := svc.AddCandidate(ctx, c); err != nil {
			return fmt.Errorf("adding candidate %q: %w", c.Name, err)
		}
	}

	logger.Info("data loaded",
		zap.Int("vacancies", len(vacancies)),
		zap.Int("candidates", len(candidates)),
	)

	return nil
}

// normalizeVacancy fills the defaults a constructor would have set. Decoded
// records skip the constructor, so absent list fields arrive as nil.
func normalizeVacancy(v *domain.Vacancy) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Requirements == nil {
		v.Requirements = []string{}
	}
	if v.Responsibilities == nil {
		v.Responsibilities = []string{}
	}
	if v.Skills == nil {
		v.Skills = []string{}
	}
	if v.EmploymentType == "" {
		v.EmploymentType = domain.EmploymentFullTime
	}
}

func normalizeCandidate(c *domain.Candidate) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Experience == nil {
		c.Experience = []string{}
	}
	if c.Education == nil {
		c.Education = []string{}
	}
}

func readJSON[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []*T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return items, nil
}
