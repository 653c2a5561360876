package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/contact-harvester/internal/index"
	"github.com/JakeFAU/contact-harvester/internal/match"
	"github.com/JakeFAU/contact-harvester/internal/profile"
)

// ProfileStore provides an in-memory document store for development/testing.
type ProfileStore struct {
	mu       sync.RWMutex
	created  bool
	profiles map[string]profile.Profile
}

var (
	_ index.Writer   = (*ProfileStore)(nil)
	_ match.Searcher = (*ProfileStore)(nil)
)

// NewProfileStore constructs a ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]profile.Profile)}
}

// EnsureCollection marks the collection as created.
func (s *ProfileStore) EnsureCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

// Upsert stores p keyed by its domain.
func (s *ProfileStore) Upsert(_ context.Context, p profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Domain] = p
	return nil
}

// Get returns the profile stored for domain.
func (s *ProfileStore) Get(domain string) (profile.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[domain]
	return p, ok
}

// Len reports how many profiles are stored.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Created reports whether EnsureCollection has run.
func (s *ProfileStore) Created() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created
}

// Search scores every profile and returns the best qualifying one. Ties go to the
// lexically smallest domain.
func (s *ProfileStore) Search(_ context.Context, q match.Query) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make([]string, 0, len(s.profiles))
	for d := range s.profiles {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var (
		best      profile.Profile
		bestScore float64
		found     bool
	)
	for _, d := range domains {
		p := s.profiles[d]
		score, matched := match.Score(p, q)
		if !q.Qualifies(matched) || score <= 0 {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = p, score, true
		}
	}
	if !found {
		return profile.Profile{}, match.ErrNoMatch
	}
	return best, nil
}
