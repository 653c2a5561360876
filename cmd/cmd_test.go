package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type workspace struct {
	dir     string
	outDir  string
	config  string
	domains string
	names   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:     dir,
		outDir:  filepath.Join(dir, "output"),
		config:  filepath.Join(dir, "harvester.yaml"),
		domains: filepath.Join(dir, "domains.csv"),
		names:   filepath.Join(dir, "names.csv"),
	}
	cfg := fmt.Sprintf(`crawler:
  retries: 1
  retry_delay: 0s
  request_timeout: 2s
input:
  domains_file: %q
  names_file: %q
storage:
  backend: local
  local_dir: %q
index:
  backend: memory
metrics:
  enabled: false
logging:
  development: false
  level: error
`, ws.domains, ws.names, ws.outDir)
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o600))
	require.NoError(t, os.MkdirAll(ws.outDir, 0o750))
	return ws
}

func (ws workspace) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMergeIndexAndStatsCommands(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, ws.domains, "domain\na.com\nb.com\nc.com\nd.com\n")
	ws.write(t, ws.names, "domain,company_commercial_name,company_legal_name,company_all_available_names\n"+
		"a.com,Acme,Acme LLC,Acme | Acme LLC\n"+
		"z.com,Zeta,,\n")
	ws.write(t, filepath.Join(ws.outDir, "scraped_data.csv"),
		"domain,phone_numbers,social_links,address\n"+
			"https://www.a.com,123-456-7890,https://facebook.com/acme,\n"+
			"http://b.com,,,1 Main St\n")

	out, err := run(t, "merge", "--config", ws.config)
	require.NoError(t, err)
	require.Contains(t, out, "merged_profiles.jsonl")

	merged, err := os.ReadFile(filepath.Join(ws.outDir, "merged_profiles.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(merged)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], `"domain":"a.com"`)
	require.Contains(t, lines[0], `"company_commercial_name":"Acme"`)
	require.Contains(t, lines[1], `"domain":"b.com"`)
	require.Contains(t, lines[2], `"domain":"z.com"`)

	out, err = run(t, "index", "--config", ws.config)
	require.NoError(t, err)
	require.JSONEq(t, `{"read":3,"indexed":3,"skipped":0}`, out)

	out, err = run(t, "stats", "--config", ws.config)
	require.NoError(t, err)
	require.Contains(t, out, "Total domains:        4")
	require.Contains(t, out, "Successfully scraped: 2 (50.00% coverage)")
	require.Contains(t, out, "Phone fill rate:      1 / 2 (50.00%)")
}

func TestCrawlCommandRecordsUnreachableDomains(t *testing.T) {
	ws := newWorkspace(t)
	// Port 1 refuses connections on every candidate.
	ws.write(t, ws.domains, "domain\n127.0.0.1:1\n\n")

	out, err := run(t, "crawl", "--config", ws.config)
	require.NoError(t, err)
	require.Contains(t, out, `"failed": 1`)

	ledger, err := os.ReadFile(filepath.Join(ws.outDir, "failed_domains.csv"))
	require.NoError(t, err)
	require.Equal(t, "domain,http_status\n127.0.0.1:1,\n", string(ledger))
	_, err = os.Stat(filepath.Join(ws.outDir, "scraped_data.csv"))
	require.True(t, os.IsNotExist(err))
}

func TestCommandsFailWithoutInputs(t *testing.T) {
	ws := newWorkspace(t)

	_, err := run(t, "crawl", "--config", ws.config)
	require.ErrorContains(t, err, "open domains file")

	_, err = run(t, "index", "--config", ws.config)
	require.ErrorContains(t, err, "open merged profiles")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: floppy\n"), 0o600))

	_, err := run(t, "stats", "--config", cfgPath)
	require.ErrorContains(t, err, "load config")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, lis, handler, time.Second, zap.NewNop())
	}()

	resp, err := http.Get("http://" + lis.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
