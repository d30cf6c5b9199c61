package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmploymentFullTime is the default employment type for new vacancies.
const EmploymentFullTime = "full-time"

// Vacancy is an open position candidates are matched against. A vacancy is
// treated as immutable once indexed: changing its text would require
// re-embedding, which is not supported.
type Vacancy struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Requirements     []string  `json:"requirements"`
	Responsibilities []string  `json:"responsibilities"`
	Skills           []string  `json:"skills"`
	ExperienceYears  int       `json:"experience_years,omitempty"`
	SalaryRange      string    `json:"salary_range,omitempty"`
	Location         string    `json:"location,omitempty"`
	EmploymentType   string    `json:"employment_type"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewVacancy builds a vacancy with a generated identity and defaulted fields.
func NewVacancy(title, description string) *Vacancy {
	return &Vacancy{
		ID:               uuid.New(),
		Title:            title,
		Description:      description,
		Requirements:     []string{},
		Responsibilities: []string{},
		Skills:           []string{},
		EmploymentType:   EmploymentFullTime,
		CreatedAt:        time.Now(),
	}
}

// Validate reports whether the vacancy has the minimum required fields.
func (v *Vacancy) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return fmt.Errorf("vacancy title is required")
	}
	if len(strings.TrimSpace(v.Description)) < 10 {
		return fmt.Errorf("vacancy description must be at least 10 characters")
	}
	return nil
}

// ToText renders the vacancy as one canonical text blob. The same blob is
// used for embedding, retrieval queries and reranking, so the field order is
// fixed and empty fields are skipped.
func (v *Vacancy) ToText() string {
	parts := []string{
		"Vacancy: " + v.Title,
		"Description: " + v.Description,
	}

	if len(v.Requirements) > 0 {
		parts = append(parts, "Requirements: "+strings.Join(v.Requirements, ", "))
	}
	if len(v.Responsibilities) > 0 {
		parts = append(parts, "Responsibilities: "+strings.Join(v.Responsibilities, ", "))
	}
	if len(v.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(v.Skills, ", "))
	}
	if v.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("Experience: %d years", v.ExperienceYears))
	}
	if v.Location != "" {
		parts = append(parts, "Location: "+v.Location)
	}

	return strings.Join(parts, " | ")
}
