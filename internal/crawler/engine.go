package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/clock"
	"github.com/JakeFAU/contact-harvester/internal/metrics"
)

// ResultSink persists the two collections produced by a run.
type ResultSink interface {
	WriteRecords(ctx context.Context, records []Record) (string, error)
	WriteFailures(ctx context.Context, failures []FailureEntry) (string, error)
}

// EngineOptions carries optional collaborators of the Engine.
type EngineOptions struct {
	Publisher Publisher
	Topic     string
	Clock     Clock
	IDs       IDGenerator
	Logger    *zap.Logger
}

// Engine drives one crawl task per domain and aggregates their outcomes.
type Engine struct {
	resolver  *Resolver
	extractor Extractor
	sink      ResultSink
	publisher Publisher
	topic     string
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger
}

// NewEngine wires the crawl pipeline.
func NewEngine(resolver *Resolver, extractor Extractor, sink ResultSink, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Engine{
		resolver:  resolver,
		extractor: extractor,
		sink:      sink,
		publisher: opts.Publisher,
		topic:     opts.Topic,
		clock:     clk,
		ids:       opts.IDs,
		logger:    logger,
	}
}

// Run crawls every domain, then persists successes and failures. Per-domain failures
// never abort the run; only persistence errors are returned.
func (e *Engine) Run(ctx context.Context, rawDomains []string) (RunSummary, error) {
	if e.resolver == nil || e.extractor == nil || e.sink == nil {
		return RunSummary{}, errors.New("engine is not fully configured")
	}
	domains := NormalizeDomains(rawDomains)
	summary := RunSummary{
		RunID:     e.newRunID(),
		Domains:   len(domains),
		StartedAt: e.clock.Now(),
	}
	logger := e.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("crawl started", zap.Int("domains", len(domains)))

	results := make(chan DomainResult)
	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(idx int, domain Domain) {
			defer wg.Done()
			results <- e.crawl(ctx, idx+1, domain, logger)
		}(i, d)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]Record, 0, len(domains))
	var failures []FailureEntry
	seenFailures := make(map[FailureEntry]struct{})
	for res := range results {
		metrics.ObserveDomain(string(res.State))
		switch res.State {
		case CrawlStateSucceeded:
			records = append(records, res.Record)
		case CrawlStateFailed:
			if _, dup := seenFailures[res.Failure]; dup {
				continue
			}
			seenFailures[res.Failure] = struct{}{}
			failures = append(failures, res.Failure)
		}
	}
	summary.Succeeded = len(records)
	summary.Failed = len(failures)

	if err := e.persist(ctx, records, failures, &summary, logger); err != nil {
		return summary, err
	}

	summary.FinishedAt = e.clock.Now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	logger.Info("crawl finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Duration),
	)
	e.publishSummary(ctx, summary, logger)
	return summary, nil
}

func (e *Engine) crawl(ctx context.Context, idx int, d Domain, logger *zap.Logger) DomainResult {
	logger = logger.With(zap.Int("index", idx), zap.String("domain", d.String()))
	logger.Debug("crawling", zap.String("state", string(CrawlStateResolving)))

	resolved, outcome := e.resolver.Resolve(ctx, d)
	if !outcome.Succeeded() {
		logger.Warn("domain failed", zap.String("status", outcome.Status.String()))
		return DomainResult{
			Domain:  d,
			State:   CrawlStateFailed,
			Failure: FailureEntry{Domain: d, Status: outcome.Status},
		}
	}

	record := Record{ResolvedURL: resolved, Signals: e.extractor.Extract(outcome.Body)}
	logger.Info("domain crawled",
		zap.String("url", resolved),
		zap.Int("phones", len(record.PhoneNumbers)),
		zap.Int("socials", len(record.SocialLinks)),
		zap.Bool("address", record.HasAddress),
	)
	return DomainResult{Domain: d, State: CrawlStateSucceeded, Record: record}
}

func (e *Engine) persist(
	ctx context.Context,
	records []Record,
	failures []FailureEntry,
	summary *RunSummary,
	logger *zap.Logger,
) error {
	if len(records) > 0 {
		uri, err := e.sink.WriteRecords(ctx, records)
		if err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		summary.RecordsURI = uri
		logger.Info("scraped data saved", zap.String("uri", uri), zap.Int("rows", len(records)))
	}
	if len(failures) > 0 {
		uri, err := e.sink.WriteFailures(ctx, failures)
		if err != nil {
			return fmt.Errorf("write failures: %w", err)
		}
		summary.FailuresURI = uri
		logger.Warn("failed domains saved", zap.String("uri", uri), zap.Int("rows", len(failures)))
	}
	return nil
}

func (e *Engine) publishSummary(ctx context.Context, summary RunSummary, logger *zap.Logger) {
	if e.publisher == nil || e.topic == "" {
		return
	}
	id, err := e.publisher.Publish(ctx, e.topic, summary)
	if err != nil {
		logger.Warn("publish run summary failed", zap.Error(err))
		return
	}
	logger.Debug("run summary published", zap.String("message_id", id))
}

func (e *Engine) newRunID() string {
	if e.ids == nil {
		return ""
	}
	id, err := e.ids.NewID()
	if err != nil {
		e.logger.Warn("generate run id failed", zap.Error(err))
		return ""
	}
	return id
}

// NormalizeDomains trims entries and drops blanks.
func NormalizeDomains(raw []string) []Domain {
	out := make([]Domain, 0, len(raw))
	for _, r := range raw {
		d := NewDomain(r)
		if d == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
