package domain

import (
	"strings"
	"testing"
)

func TestVacancyValidate(t *testing.T) {
	cases := []struct {
		name    string
		vacancy *Vacancy
		wantErr bool
	}{
		{"valid", NewVacancy("Backend Engineer", "Build and run Go services"), false},
		{"missing title", NewVacancy("", "Build and run Go services"), true},
		{"short description", NewVacancy("Backend Engineer", "short"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.vacancy.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCandidateValidate(t *testing.T) {
	cases := []struct {
		name      string
		candidate *Candidate
		wantErr   bool
	}{
		{"valid", NewCandidate("Dana", "dana@example.com", "Backend engineer in Go"), false},
		{"missing name", NewCandidate("", "dana@example.com", "Backend engineer in Go"), true},
		{"bad email", NewCandidate("Dana", "not-an-email", "Backend engineer in Go"), true},
		{"short summary", NewCandidate("Dana", "dana@example.com", "short"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.candidate.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestVacancyToTextSkipsEmptyFields(t *testing.T) {
	v := NewVacancy("Backend Engineer", "Build Go services")
	text := v.ToText()

	if !strings.HasPrefix(text, "Vacancy: Backend Engineer | Description: Build Go services") {
		t.Fatalf("unexpected text prefix: %q", text)
	}
	if strings.Contains(text, "Requirements") || strings.Contains(text, "Location") {
		t.Fatalf("empty fields must be skipped: %q", text)
	}

	v.Skills = []string{"go", "docker"}
	v.ExperienceYears = 3
	v.Location = "Berlin"
	text = v.ToText()

	for _, want := range []string{"Skills: go, docker", "Experience: 3 years", "Location: Berlin"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestCandidateCombinedText(t *testing.T) {
	c := NewCandidate("Dana", "dana@example.com", "Backend engineer")
	c.Skills = []string{"go"}
	c.Experience = []string{"Acme Corp"}

	got := c.CombinedText()
	if got != "Backend engineer go Acme Corp" {
		t.Fatalf("unexpected combined text: %q", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}

	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
