package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/testutil"
)

func useTestConfig(t *testing.T, dbPath string) {
	t.Helper()
	prev := conf
	conf = internal.DefaultConfig()
	conf.DBPath = dbPath
	t.Cleanup(func() { conf = prev })
}

func TestRunHealthcheck(t *testing.T) {
	_, storeDir := testutil.CreateTestStore(t)

	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer peer.Close()

	tests := []struct {
		name    string
		kind    string
		dbPath  string
		want    string
		wantErr bool
	}{
		{
			name:   "embedded store with schema",
			kind:   "embedded",
			dbPath: storeDir,
			want:   "0 messages, 0 persons, 0 threads",
		},
		{
			name:   "embedded store without schema",
			kind:   "embedded",
			dbPath: testutil.CreateTempDir(t),
			want:   "Schema not created yet",
		},
		{
			name:   "healthy http peer",
			kind:   "http",
			dbPath: peer.URL,
			want:   "HTTP peer healthy",
		},
		{
			name:    "unreachable socket peer",
			kind:    "socket",
			dbPath:  filepath.Join(testutil.CreateTempDir(t), "missing.sock"),
			want:    "Socket peer unreachable",
			wantErr: true,
		},
		{
			name:    "unknown sink",
			kind:    "carrier-pigeon",
			want:    "Unknown sink",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTestConfig(t, tt.dbPath)

			var out bytes.Buffer
			err := runHealthcheck(context.Background(), &out, tt.kind, testutil.CreateTempDir(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("runHealthcheck() error = %v, wantErr %v\n%s", err, tt.wantErr, out.String())
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
			if !strings.Contains(out.String(), "No export has been recorded yet") && tt.kind != "carrier-pigeon" {
				t.Errorf("expected empty run history:\n%s", out.String())
			}
		})
	}
}

func TestRunHealthcheck_LastRun(t *testing.T) {
	useTestConfig(t, testutil.CreateTempDir(t))

	cacheDir := testutil.CreateTempDir(t)
	run := internal.RunRecord{
		Source: "archive.jsonl",
		Sink:   "embedded",
		Stats:  internal.ExportStats{Total: 5, Exported: 5},
		Error:  "peer replied with error",
	}
	if err := internal.NewCacheManager(cacheDir).RecordRun(run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	var out bytes.Buffer
	if err := runHealthcheck(context.Background(), &out, "embedded", cacheDir); err != nil {
		t.Fatalf("runHealthcheck() error = %v", err)
	}
	if !strings.Contains(out.String(), "failed: peer replied with error") {
		t.Errorf("expected failed last run in output:\n%s", out.String())
	}
}
