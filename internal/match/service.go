package match

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/metrics"
	"github.com/JakeFAU/contact-harvester/internal/profile"
)

// ErrNoMatch is returned by a Searcher when no document qualifies.
var ErrNoMatch = errors.New("no matching profile")

// Searcher returns the highest scoring profile for q.
type Searcher interface {
	Search(ctx context.Context, q Query) (profile.Profile, error)
}

// Result is the matching endpoint's response body.
type Result struct {
	MatchFound     bool             `json:"match_found"`
	CompanyProfile *profile.Profile `json:"company_profile"`
}

// Service resolves descriptors to profiles.
type Service struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewService wires a Service.
func NewService(searcher Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{searcher: searcher, logger: logger}
}

// Match looks up the best profile for d. A descriptor with no usable fields is a miss
// without touching the store.
func (s *Service) Match(ctx context.Context, d Descriptor) (Result, error) {
	q := BuildQuery(d)
	if q.Empty() {
		metrics.ObserveMatch(false)
		return Result{}, nil
	}
	p, err := s.searcher.Search(ctx, q)
	switch {
	case errors.Is(err, ErrNoMatch):
		metrics.ObserveMatch(false)
		return Result{}, nil
	case err != nil:
		return Result{}, fmt.Errorf("search profiles: %w", err)
	}
	metrics.ObserveMatch(true)
	s.logger.Debug("profile matched", zap.String("domain", p.Domain), zap.Int("clauses", len(q.Clauses)))
	return Result{MatchFound: true, CompanyProfile: &p}, nil
}
