package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/contact-harvester/internal/match"
	"github.com/JakeFAU/contact-harvester/internal/profile"
)

func sp(s string) *string { return &s }

func TestProfileStoreUpsertReplacesByDomain(t *testing.T) {
	t.Parallel()

	store := NewProfileStore()
	ctx := context.Background()
	if err := store.EnsureCollection(ctx); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if !store.Created() {
		t.Fatal("expected collection to be created")
	}
	_ = store.Upsert(ctx, profile.Profile{Domain: "acme.com", Address: sp("old")})
	_ = store.Upsert(ctx, profile.Profile{Domain: "acme.com", Address: sp("new")})

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	got, ok := store.Get("acme.com")
	if !ok || profile.Value(got.Address) != "new" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}
}

func TestProfileStoreSearchPicksHighestScore(t *testing.T) {
	t.Parallel()

	store := NewProfileStore()
	ctx := context.Background()
	_ = store.Upsert(ctx, profile.Profile{Domain: "acme.com", CompanyCommercialName: sp("Acme")})
	_ = store.Upsert(ctx, profile.Profile{
		Domain:                "acme-tools.com",
		CompanyCommercialName: sp("Acme Tools"),
		PhoneNumbers:          sp("555-010-0100"),
	})

	q := match.BuildQuery(match.Descriptor{Name: "Acme", Phone: "(555) 010 0100"})
	got, err := store.Search(ctx, q)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.Domain != "acme-tools.com" {
		t.Fatalf("Search() domain = %q, want acme-tools.com", got.Domain)
	}
}

func TestProfileStoreSearchNoMatch(t *testing.T) {
	t.Parallel()

	store := NewProfileStore()
	_ = store.Upsert(context.Background(), profile.Profile{Domain: "acme.com"})

	_, err := store.Search(context.Background(), match.BuildQuery(match.Descriptor{Website: "globex.com"}))
	if !errors.Is(err, match.ErrNoMatch) {
		t.Fatalf("Search() error = %v, want ErrNoMatch", err)
	}
}
