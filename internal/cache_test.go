package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCacheManager(t *testing.T) {
	cacheDir := t.TempDir()
	cm := NewCacheManager(cacheDir)
	if cm.GetCacheDir() != cacheDir {
		t.Errorf("NewCacheManager() cacheDir = %q, want %q", cm.GetCacheDir(), cacheDir)
	}
	expected := filepath.Join(cacheDir, "runs.yaml")
	if got := cm.GetManifestPath(); got != expected {
		t.Errorf("GetManifestPath() = %q, want %q", got, expected)
	}
}

func TestCacheManager_LoadManifest_Missing(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	manifest, err := cm.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(manifest.Runs) != 0 {
		t.Errorf("LoadManifest() runs = %d, want 0", len(manifest.Runs))
	}

	last, err := cm.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if last != nil {
		t.Errorf("LastRun() = %+v, want nil", last)
	}
}

func TestCacheManager_RecordRun(t *testing.T) {
	cm := NewCacheManager(filepath.Join(t.TempDir(), "nested"))

	first := RunRecord{
		StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:    "archive.jsonl",
		Sink:      "embedded",
		Stats:     ExportStats{Total: 10, Exported: 9, RenderFailures: 1, Batches: 1},
	}
	second := RunRecord{
		StartedAt: first.StartedAt.Add(time.Hour),
		Source:    "archive.jsonl",
		Sink:      "socket",
		Stats:     ExportStats{Total: 3, Exported: 3, Batches: 1, Graph: &GraphStats{PersonsCreated: 2}},
	}

	if err := cm.RecordRun(first); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := cm.RecordRun(second); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	last, err := cm.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if last == nil || last.Sink != "socket" {
		t.Fatalf("LastRun() = %+v, want the socket run", last)
	}
	if last.Stats.Graph == nil || last.Stats.Graph.PersonsCreated != 2 {
		t.Errorf("LastRun().Stats.Graph = %+v, want PersonsCreated 2", last.Stats.Graph)
	}

	manifest, err := cm.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(manifest.Runs) != 2 {
		t.Errorf("manifest runs = %d, want 2", len(manifest.Runs))
	}
}

func TestCacheManager_RecordRun_TrimsHistory(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	for i := 0; i < maxRunHistory+5; i++ {
		if err := cm.RecordRun(RunRecord{Source: "archive", Stats: ExportStats{Total: i}}); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
	}

	manifest, err := cm.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(manifest.Runs) != maxRunHistory {
		t.Errorf("manifest runs = %d, want %d", len(manifest.Runs), maxRunHistory)
	}
	if manifest.Runs[0].Stats.Total != 5 {
		t.Errorf("oldest kept run Total = %d, want 5", manifest.Runs[0].Stats.Total)
	}
}

func TestCacheManager_ClearCache(t *testing.T) {
	cm := NewCacheManager(t.TempDir())
	if err := cm.RecordRun(RunRecord{Source: "archive"}); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	if err := cm.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, err := os.Stat(cm.GetManifestPath()); !os.IsNotExist(err) {
		t.Error("ClearCache() should remove the manifest")
	}
	if err := cm.ClearCache(); err != nil {
		t.Errorf("ClearCache() on empty cache error = %v", err)
	}
}
