package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves one fully-qualified URL under the retry policy.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) FetchOutcome
}

// Extractor harvests contact signals from decoded page markup. Extraction never fails;
// a missing signal is a valid outcome.
type Extractor interface {
	Extract(html string) Signals
}

// BlobStore writes artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes run events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
