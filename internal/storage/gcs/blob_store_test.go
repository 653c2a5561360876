package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gcstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// newTestStore points a storage client at a fake JSON API server.
func newTestStore(t *testing.T, handler http.Handler) *BlobStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gcstorage.NewClient(context.Background(),
		option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	store, err := New(client, Config{Bucket: "test-bucket"})
	require.NoError(t, err)
	return store
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
}

func TestPutObject(t *testing.T) {
	objectName := "runs/scraped_data.csv"
	objectData := "domain,phone_numbers\n"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/test-bucket/o")
		assert.Equal(t, objectName, r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), objectData)

		fmt.Fprintln(w, `{ "name": "`+objectName+`", "bucket": "test-bucket" }`)
	})

	store := newTestStore(t, handler)
	uri, err := store.PutObject(context.Background(), objectName, "text/csv", strings.NewReader(objectData))
	require.NoError(t, err)
	require.Equal(t, "gs://test-bucket/runs/scraped_data.csv", uri)
}

func TestPutObjectServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := newTestStore(t, handler)
	_, err := store.PutObject(context.Background(), "x.csv", "text/csv", strings.NewReader("data"))
	require.Error(t, err)
}

func TestPutObjectEmptyPath(t *testing.T) {
	store := newTestStore(t, http.NotFoundHandler())
	_, err := store.PutObject(context.Background(), " ", "", strings.NewReader("data"))
	require.Error(t, err)
}
