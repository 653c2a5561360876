package crawler

import (
	"context"

	"go.uber.org/zap"
)

// Candidate is one (scheme, www-prefix) variant of a domain.
type Candidate struct {
	Scheme string
	Prefix string
	Domain Domain
}

// URL renders the candidate as a fully-qualified URL.
func (c Candidate) URL() string {
	return c.Scheme + "://" + c.Prefix + string(c.Domain)
}

var candidateOrder = [...]struct{ scheme, prefix string }{
	{"https", "www."},
	{"https", ""},
	{"http", "www."},
	{"http", ""},
}

// Candidates lists the four URL variants of d in priority order.
func Candidates(d Domain) []Candidate {
	out := make([]Candidate, 0, len(candidateOrder))
	for _, c := range candidateOrder {
		out = append(out, Candidate{Scheme: c.scheme, Prefix: c.prefix, Domain: d})
	}
	return out
}

// Resolver finds the first reachable URL variant of a domain.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewResolver builds a Resolver over fetcher.
func NewResolver(fetcher Fetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve tries each candidate in order and returns the first one that yields a body.
// When none does, it returns the lowest-priority candidate URL with the last status
// observed across all attempts; downstream CSV output depends on that URL shape.
func (r *Resolver) Resolve(ctx context.Context, d Domain) (string, FetchOutcome) {
	candidates := Candidates(d)
	lastStatus := NoStatus
	for _, c := range candidates {
		target := c.URL()
		outcome := r.fetcher.Fetch(ctx, target)
		if outcome.Succeeded() {
			return target, outcome
		}
		if outcome.Status.Valid {
			lastStatus = outcome.Status
		}
		r.logger.Debug("candidate unavailable",
			zap.String("url", target),
			zap.String("status", outcome.Status.String()),
		)
	}
	return candidates[len(candidates)-1].URL(), FetchOutcome{Status: lastStatus}
}
