package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	cases := map[string]struct {
		code int
		ok   bool
		want string
	}{
		"ok":        {200, true, "2xx"},
		"not found": {404, true, "4xx"},
		"server":    {503, true, "5xx"},
		"absent":    {0, false, "error"},
		"bogus":     {42, true, "error"},
	}
	for name, tc := range cases {
		if got := StatusClass(tc.code, tc.ok); got != tc.want {
			t.Errorf("%s: StatusClass(%d, %v) = %q; want %q", name, tc.code, tc.ok, got, tc.want)
		}
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	if domainsTotal == nil || fetchAttemptsTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	before := testutil.ToFloat64(domainsTotal.WithLabelValues("succeeded"))
	ObserveDomain("succeeded")
	if got := testutil.ToFloat64(domainsTotal.WithLabelValues("succeeded")); got != before+1 {
		t.Errorf("expected domains counter to grow by one, got %f -> %f", before, got)
	}
}

func TestObserveFetchLabelsByStatusOnly(t *testing.T) {
	Init()
	counter := fetchAttemptsTotal.WithLabelValues("5xx")
	before := testutil.ToFloat64(counter)
	ObserveFetch(500, true, 10*time.Millisecond)
	ObserveFetch(503, true, 10*time.Millisecond)
	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("expected two 5xx attempts recorded, got %f -> %f", before, got)
	}
	// One series per status class at most, whatever hosts were crawled.
	if n := testutil.CollectAndCount(fetchAttemptsTotal); n > 6 {
		t.Errorf("fetch attempts has %d series; want at most one per status class", n)
	}
}

func TestObserveRateLimitDelaySingleSeries(t *testing.T) {
	ObserveRateLimitDelay(200 * time.Millisecond)
	ObserveRateLimitDelay(2 * time.Second)
	if n := testutil.CollectAndCount(rateLimitDelaysSeconds); n != 1 {
		t.Errorf("rate limit delays has %d series; want 1", n)
	}
}
