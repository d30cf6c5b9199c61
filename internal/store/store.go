// Package store keeps vacancy and candidate records in process memory.
// There are no durability or transactional guarantees: identity collisions
// are last-write-wins, which is acceptable because identities are generated,
// not supplied by callers.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/hrtools/hr-matcher/internal/domain"
)

// ErrNotFound is returned when an entity with the requested identity does not exist.
var ErrNotFound = errors.New("entity not found")

// Store is an in-memory entity store for vacancies and candidates.
type Store struct {
	mu         sync.RWMutex
	vacancies  map[uuid.UUID]*domain.Vacancy
	candidates map[uuid.UUID]*domain.Candidate
}

// New creates an empty store.
func New() *Store {
	return &Store{
		vacancies:  make(map[uuid.UUID]*domain.Vacancy),
		candidates: make(map[uuid.UUID]*domain.Candidate),
	}
}

// CreateVacancy validates and saves a vacancy.
func (s *Store) CreateVacancy(v *domain.Vacancy) error {
	if err := v.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vacancies[v.ID] = v
	return nil
}

// CreateCandidate validates and saves a candidate.
func (s *Store) CreateCandidate(c *domain.Candidate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[c.ID] = c
	return nil
}

// Vacancy returns the vacancy with the given identity or ErrNotFound.
func (s *Store) Vacancy(id uuid.UUID) (*domain.Vacancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vacancies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Candidate returns the candidate with the given identity or ErrNotFound.
func (s *Store) Candidate(id uuid.UUID) (*domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Vacancies returns all stored vacancies in unspecified order.
func (s *Store) Vacancies() []*domain.Vacancy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Vacancy, 0, len(s.vacancies))
	for _, v := range s.vacancies {
		out = append(out, v)
	}
	return out
}

// Candidates returns all stored candidates in unspecified order.
func (s *Store) Candidates() []*domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, c)
	}
	return out
}
