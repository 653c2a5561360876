// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/contact-harvester/internal/crawler"
	"github.com/JakeFAU/contact-harvester/internal/decode"
	"github.com/JakeFAU/contact-harvester/internal/metrics"
)

// UserAgents is the fixed pool a default User-Agent is drawn from.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Config controls retry and transport behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration
	VerifyTLS   bool
	Concurrency int64
}

// Limiter delays an attempt for politeness.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// response is what one HTTP attempt observed.
type response struct {
	status int
	body   []byte
}

// getFunc performs a single HTTP GET. A nil error means the full response was read; on
// error, status is set when headers arrived before the failure.
type getFunc func(ctx context.Context, rawURL string, insecure bool) (response, error)

// Fetcher implements crawler.Fetcher on top of a Colly collector.
type Fetcher struct {
	cfg       Config
	userAgent string
	slots     *semaphore.Weighted
	limiter   Limiter
	decoder   *decode.Decoder
	logger    *zap.Logger

	verified   *http.Transport
	unverified *http.Transport
	get        getFunc
}

var _ crawler.Fetcher = (*Fetcher)(nil)

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLimiter applies a per-host limiter before every attempt.
func WithLimiter(l Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithDecoder overrides the default body decoder.
func WithDecoder(d *decode.Decoder) Option {
	return func(f *Fetcher) { f.decoder = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New builds a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 2
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 20
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgents[rand.IntN(len(UserAgents))]
	}

	f := &Fetcher{
		cfg:        cfg,
		userAgent:  ua,
		slots:      semaphore.NewWeighted(cfg.Concurrency),
		logger:     zap.NewNop(),
		verified:   newHTTPTransport(false),
		unverified: newHTTPTransport(true),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.decoder == nil {
		f.decoder = decode.New(nil, f.logger)
	}
	f.get = f.collyGet
	return f
}

// Fetch retrieves rawURL under the retry policy. The outcome carries a body only for a
// decodable 200 response, and a status whenever any attempt received a response.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) crawler.FetchOutcome {
	logger := f.logger.With(zap.String("url", rawURL))
	last := crawler.NoStatus

	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		resp, err := f.attempt(ctx, rawURL, !f.cfg.VerifyTLS)
		if err != nil && isTLSError(err) {
			logger.Warn("tls error, retrying without verification", zap.Error(err))
			metrics.ObserveTLSFallback()
			resp, err = f.attempt(ctx, rawURL, true)
			if err != nil {
				logger.Warn("unverified retry failed", zap.Error(err))
			}
		} else if err != nil {
			logger.Warn("fetch attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}

		if resp.status != 0 {
			last = crawler.StatusOf(resp.status)
		}
		if err == nil {
			if body, ok := f.accept(resp); ok {
				return crawler.FetchOutcome{Body: body, HasBody: true, Status: last}
			}
		}

		if attempt < f.cfg.Retries {
			if err := sleep(ctx, f.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				logger.Debug("backoff interrupted", zap.Error(err))
				break
			}
		}
	}
	return crawler.FetchOutcome{Status: last}
}

func (f *Fetcher) accept(resp response) (string, bool) {
	if resp.status != http.StatusOK {
		return "", false
	}
	return f.decoder.Decode(resp.body)
}

// attempt runs one GET inside an admission slot. The politeness wait happens before the
// slot is taken.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, insecure bool) (response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return response{}, err
		}
	}
	if err := f.slots.Acquire(ctx, 1); err != nil {
		return response{}, fmt.Errorf("acquire fetch slot: %w", err)
	}
	defer f.slots.Release(1)
	metrics.IncInflight()
	defer metrics.DecInflight()

	start := time.Now()
	resp, err := f.get(ctx, rawURL, insecure)
	metrics.ObserveFetch(resp.status, err == nil, time.Since(start))
	return resp, err
}

func (f *Fetcher) collyGet(ctx context.Context, rawURL string, insecure bool) (response, error) {
	c := colly.NewCollector(colly.Async(false))
	c.Context = ctx
	c.UserAgent = f.userAgent
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true
	if insecure {
		c.WithTransport(f.unverified)
	} else {
		c.WithTransport(f.verified)
	}
	c.SetRequestTimeout(f.cfg.Timeout)

	var (
		result   response
		bodyRead bool
		fetchErr error
	)
	c.OnResponseHeaders(func(r *colly.Response) {
		result.status = r.StatusCode
	})
	c.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
		bodyRead = true
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- c.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return response{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err == nil && bodyRead {
			return result, nil
		}
		if err == nil {
			err = fetchErr
		}
		if err == nil {
			err = errors.New("no response received")
		}
		// Headers may have arrived before the body read failed; the status still counts.
		return response{status: result.status}, fmt.Errorf("colly visit failed: %w", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

func newHTTPTransport(insecure bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecure, //nolint:gosec // unverified fetching is opt-out via crawler.verify_tls
		},
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
