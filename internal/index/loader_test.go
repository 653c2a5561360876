package index_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/contact-harvester/internal/index"
	"github.com/JakeFAU/contact-harvester/internal/profile"
	"github.com/JakeFAU/contact-harvester/internal/storage/memory"
)

const jsonl = `{"domain":"a.com","phone_numbers":"123-456-7890","social_links":null,"address":null,"company_commercial_name":"A","company_legal_name":null,"company_all_available_names":null}

{"domain":"","phone_numbers":null,"social_links":null,"address":null,"company_commercial_name":"Orphan","company_legal_name":null,"company_all_available_names":null}
{"domain":"a.com","phone_numbers":"999-999-9999","social_links":null,"address":null,"company_commercial_name":"A","company_legal_name":null,"company_all_available_names":null}
{"domain":"b.com","phone_numbers":null,"social_links":null,"address":null,"company_commercial_name":null,"company_legal_name":null,"company_all_available_names":null}
`

func TestLoaderUpsertsByDomain(t *testing.T) {
	t.Parallel()

	store := memory.NewProfileStore()
	stats, err := index.NewLoader(store, nil).Load(context.Background(), strings.NewReader(jsonl))
	require.NoError(t, err)
	require.Equal(t, index.Stats{Read: 4, Indexed: 3, Skipped: 1}, stats)
	require.True(t, store.Created())
	require.Equal(t, 2, store.Len())

	got, ok := store.Get("a.com")
	require.True(t, ok)
	require.Equal(t, "999-999-9999", profile.Value(got.PhoneNumbers), "later lines replace earlier ones")
}

type failingWriter struct {
	ensureErr error
	upsertErr error
}

func (f failingWriter) EnsureCollection(context.Context) error { return f.ensureErr }

func (f failingWriter) Upsert(context.Context, profile.Profile) error { return f.upsertErr }

func TestLoaderEnsureCollectionError(t *testing.T) {
	t.Parallel()

	_, err := index.NewLoader(failingWriter{ensureErr: errors.New("permission denied")}, nil).
		Load(context.Background(), strings.NewReader(jsonl))
	require.ErrorContains(t, err, "ensure collection")
}

func TestLoaderUpsertError(t *testing.T) {
	t.Parallel()

	stats, err := index.NewLoader(failingWriter{upsertErr: errors.New("timeout")}, nil).
		Load(context.Background(), strings.NewReader(jsonl))
	require.ErrorContains(t, err, "upsert a.com (line 1)")
	require.Equal(t, 1, stats.Read)
	require.Zero(t, stats.Indexed)
}

func TestLoaderMalformedLine(t *testing.T) {
	t.Parallel()

	_, err := index.NewLoader(memory.NewProfileStore(), nil).
		Load(context.Background(), strings.NewReader("{\"domain\":\"a.com\"}\nnot json\n"))
	require.ErrorContains(t, err, "line 2")
}
