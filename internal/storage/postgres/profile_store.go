// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/contact-harvester/internal/index"
	"github.com/JakeFAU/contact-harvester/internal/match"
	"github.com/JakeFAU/contact-harvester/internal/profile"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// similarityThreshold is the pg_trgm score below which a fuzzy clause does not match.
const similarityThreshold = 0.3

// ProfileStoreConfig controls the Postgres connection pool used for profile documents.
type ProfileStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// ProfileStore keeps one jsonb document per domain and answers match queries with
// trigram similarity.
type ProfileStore struct {
	pool  pool
	table string
	ids   func() (uuid.UUID, error)
}

var (
	_ index.Writer   = (*ProfileStore)(nil)
	_ match.Searcher = (*ProfileStore)(nil)
)

// NewProfileStore creates a Postgres-backed ProfileStore using the provided config.
func NewProfileStore(ctx context.Context, cfg ProfileStoreConfig) (*ProfileStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("index.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProfileStore{pool: p, table: table, ids: uuid.NewV7}, nil
}

// NewProfileStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProfileStoreWithPool(p pool, table string) (*ProfileStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProfileStore{pool: p, table: table, ids: uuid.NewV7}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "companies"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ProfileStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *ProfileStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureCollection creates the trigram extension, the table and its name indexes.
func (s *ProfileStore) EnsureCollection(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	domain text NOT NULL UNIQUE,
	doc jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_commercial_name_trgm ON %[1]s USING gin ((doc->>'%[2]s') gin_trgm_ops)`,
			s.table, match.FieldCommercialName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_all_names_trgm ON %[1]s USING gin ((doc->>'%[2]s') gin_trgm_ops)`,
			s.table, match.FieldAllNames),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure %s: %w", s.table, err)
		}
	}
	return nil
}

// Upsert inserts p or replaces the document stored for its domain.
func (s *ProfileStore) Upsert(ctx context.Context, p profile.Profile) error {
	if p.Domain == "" {
		return fmt.Errorf("profile domain is required")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	id, err := s.ids()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, domain, doc) VALUES ($1, $2, $3)
ON CONFLICT (domain) DO UPDATE
SET doc = EXCLUDED.doc, updated_at = now()`, s.table)
	if _, err := s.pool.Exec(ctx, query, id.String(), p.Domain, doc); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Search returns the best scoring document for q.
func (s *ProfileStore) Search(ctx context.Context, q match.Query) (profile.Profile, error) {
	if q.Empty() {
		return profile.Profile{}, match.ErrNoMatch
	}
	query, args := buildSearch(s.table, q)
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, match.ErrNoMatch
		}
		return profile.Profile{}, fmt.Errorf("search profiles: %w", err)
	}
	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// buildSearch renders q as a scored SELECT. Field names come from a fixed set and are
// inlined; values are always bound.
func buildSearch(table string, q match.Query) (string, []any) {
	args := make([]any, 0, len(q.Clauses)+1)
	terms := make([]string, 0, len(q.Clauses))
	hits := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		args = append(args, c.Value)
		ph := "$" + strconv.Itoa(len(args))
		field := fmt.Sprintf("coalesce(doc->>'%s', '')", c.Field)
		boost := strconv.FormatFloat(c.Boost, 'g', -1, 64)

		var cond, weight string
		switch c.Kind {
		case match.KindFuzzy:
			cond = fmt.Sprintf("similarity(%s, %s) >= %g", field, ph, similarityThreshold)
			weight = fmt.Sprintf("%s * similarity(%s, %s)", boost, field, ph)
		case match.KindTerm:
			cond = fmt.Sprintf("lower(%s) = lower(%s)", field, ph)
			weight = boost
		case match.KindDigits:
			cond = fmt.Sprintf("%s = ANY(string_to_array(regexp_replace(%s, '[^0-9;]', '', 'g'), ';'))", ph, field)
			weight = boost
		default:
			cond = fmt.Sprintf("strpos(lower(%s), lower(%s)) > 0", field, ph)
			weight = boost
		}
		terms = append(terms, fmt.Sprintf("CASE WHEN %s THEN %s ELSE 0 END", cond, weight))
		hits = append(hits, fmt.Sprintf("CASE WHEN %s THEN 1 ELSE 0 END", cond))
	}
	size := q.Size
	if size <= 0 {
		size = 1
	}
	minimum := q.MinimumShouldMatch
	if minimum <= 0 {
		minimum = 1
	}
	args = append(args, size)
	query := fmt.Sprintf(`
SELECT doc FROM (
	SELECT doc, domain, (%s) AS score, (%s) AS hits FROM %s
) scored
WHERE hits >= %d AND score > 0
ORDER BY score DESC, domain
LIMIT $%d`,
		strings.Join(terms, " + "),
		strings.Join(hits, " + "),
		table,
		minimum,
		len(args),
	)
	return query, args
}
