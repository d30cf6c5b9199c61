package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Candidate is a person profile matched against vacancies.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Summary         string    `json:"summary"`
	Skills          []string  `json:"skills"`
	Experience      []string  `json:"experience"`
	Education       []string  `json:"education"`
	ExperienceYears int       `json:"experience_years,omitempty"`
	DesiredPosition string    `json:"desired_position,omitempty"`
	DesiredSalary   string    `json:"desired_salary,omitempty"`
	Location        string    `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCandidate builds a candidate with a generated identity and defaulted fields.
func NewCandidate(name, email, summary string) *Candidate {
	return &Candidate{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Summary:    summary,
		Skills:     []string{},
		Experience: []string{},
		Education:  []string{},
		CreatedAt:  time.Now(),
	}
}

// Validate reports whether the candidate has the minimum required fields.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("candidate name is required")
	}
	if !emailRe.MatchString(c.Email) {
		return fmt.Errorf("candidate email %q is not valid", c.Email)
	}
	if len(strings.TrimSpace(c.Summary)) < 10 {
		return fmt.Errorf("candidate summary must be at least 10 characters")
	}
	return nil
}

// ToText renders the candidate as one canonical text blob used for embedding
// and reranking. Field order is fixed; empty fields are skipped.
func (c *Candidate) ToText() string {
	parts := []string{
		"Candidate: " + c.Name,
		"Summary: " + c.Summary,
	}

	if c.DesiredPosition != "" {
		parts = append(parts, "Desired position: "+c.DesiredPosition)
	}
	if len(c.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(c.Skills, ", "))
	}
	if len(c.Experience) > 0 {
		parts = append(parts, "Experience: "+strings.Join(c.Experience, " | "))
	}
	if len(c.Education) > 0 {
		parts = append(parts, "Education: "+strings.Join(c.Education, ", "))
	}
	if c.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("Years of experience: %d", c.ExperienceYears))
	}
	if c.Location != "" {
		parts = append(parts, "Location: "+c.Location)
	}

	return strings.Join(parts, " | ")
}

// CombinedText is the candidate text screened for keyword presence: summary
// plus skills and free-text experience entries.
func (c *Candidate) CombinedText() string {
	parts := append([]string{c.Summary}, c.Skills...)
	parts = append(parts, c.Experience...)
	return strings.Join(parts, " ")
}
