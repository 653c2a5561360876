// Package index loads merged profiles into a searchable document store.
package index

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/profile"
)

// Writer is a document store keyed by domain.
type Writer interface {
	// EnsureCollection creates the backing collection when it does not exist.
	EnsureCollection(ctx context.Context) error
	// Upsert inserts p or replaces the document with the same domain.
	Upsert(ctx context.Context, p profile.Profile) error
}

// Stats summarizes a load.
type Stats struct {
	Read    int `json:"read"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// Loader streams JSONL profiles into a Writer.
type Loader struct {
	writer Writer
	logger *zap.Logger
}

// NewLoader wires a Loader.
func NewLoader(writer Writer, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{writer: writer, logger: logger}
}

// Load ensures the collection exists, then upserts every profile in r. Profiles without a
// domain cannot be keyed and are skipped.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	if err := l.writer.EnsureCollection(ctx); err != nil {
		return stats, fmt.Errorf("ensure collection: %w", err)
	}
	err := profile.ReadJSONL(r, func(line int, p profile.Profile) error {
		stats.Read++
		if p.Domain == "" {
			stats.Skipped++
			l.logger.Warn("skipping profile without domain", zap.Int("line", line))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("index canceled: %w", err)
		}
		if err := l.writer.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert %s (line %d): %w", p.Domain, line, err)
		}
		stats.Indexed++
		return nil
	})
	if err != nil {
		return stats, err
	}
	l.logger.Info("profiles indexed",
		zap.Int("read", stats.Read),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}
