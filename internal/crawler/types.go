package crawler

import (
	"strconv"
	"strings"
	"time"
)

// Domain is a bare host name without scheme or path.
type Domain string

// NewDomain trims surrounding whitespace from raw.
func NewDomain(raw string) Domain {
	return Domain(strings.TrimSpace(raw))
}

// String returns the host.
func (d Domain) String() string {
	return string(d)
}

// Status is an HTTP status code that may be absent.
type Status struct {
	Code  int
	Valid bool
}

// StatusOf wraps a received HTTP status code.
func StatusOf(code int) Status {
	return Status{Code: code, Valid: true}
}

// NoStatus is the absent status of an attempt that never received a response.
var NoStatus = Status{}

// String renders the code, or "" when absent.
func (s Status) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.Itoa(s.Code)
}

// FetchOutcome is the (body, status) pair produced by one URL.
type FetchOutcome struct {
	Body    string
	HasBody bool
	Status  Status
}

// Succeeded reports whether the outcome carries a usable page.
func (o FetchOutcome) Succeeded() bool {
	return o.HasBody
}

// Signals are the contact details found on one page.
type Signals struct {
	PhoneNumbers []string
	SocialLinks  []string
	Address      string
	HasAddress   bool
}

// Record holds the signals harvested from a successfully fetched page.
type Record struct {
	ResolvedURL string
	Signals
}

// FailureEntry is a domain that yielded no usable page with its last observed status.
type FailureEntry struct {
	Domain Domain
	Status Status
}

// CrawlState tracks a domain through the pipeline.
type CrawlState string

// Crawl state values.
const (
	CrawlStatePending   CrawlState = "pending"
	CrawlStateResolving CrawlState = "resolving"
	CrawlStateSucceeded CrawlState = "succeeded"
	CrawlStateFailed    CrawlState = "failed"
)

// DomainResult is the terminal outcome of one crawl task. Exactly one of Record or
// Failure is set, selected by State.
type DomainResult struct {
	Domain  Domain
	State   CrawlState
	Record  Record
	Failure FailureEntry
}

// RunSummary describes a completed crawl run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Domains     int           `json:"domains"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
	RecordsURI  string        `json:"records_uri,omitempty"`
	FailuresURI string        `json:"failures_uri,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}
