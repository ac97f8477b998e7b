package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersion = "1"
	maxRunHistory   = 50
)

// CacheManager keeps the history of export runs in the cache directory
type CacheManager struct {
	cacheDir string
}

// RunRecord describes one export run
type RunRecord struct {
	StartedAt time.Time   `yaml:"started_at"`
	Source    string      `yaml:"source"`
	Sink      string      `yaml:"sink,omitempty"`
	Target    string      `yaml:"target,omitempty"`
	Format    string      `yaml:"format,omitempty"`
	Stats     ExportStats `yaml:"stats"`
	Error     string      `yaml:"error,omitempty"`
}

// RunManifest is the YAML document holding run history, oldest first
type RunManifest struct {
	Version   string      `yaml:"version"`
	UpdatedAt time.Time   `yaml:"updated_at"`
	Runs      []RunRecord `yaml:"runs"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
	}
}

// DefaultCacheDir returns the directory run history is kept in
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(dir, "imessage-exporter"), nil
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetManifestPath returns the path to the run manifest
func (cm *CacheManager) GetManifestPath() string {
	return filepath.Join(cm.cacheDir, "runs.yaml")
}

// LoadManifest loads the run manifest. A missing manifest is empty.
func (cm *CacheManager) LoadManifest() (*RunManifest, error) {
	data, err := os.ReadFile(cm.GetManifestPath())
	if os.IsNotExist(err) {
		return &RunManifest{Version: manifestVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	var manifest RunManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// SaveManifest writes the run manifest
func (cm *CacheManager) SaveManifest(manifest *RunManifest) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	manifest.Version = manifestVersion
	manifest.UpdatedAt = time.Now()
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(cm.GetManifestPath(), data, 0644)
}

// RecordRun appends a run to the manifest, keeping the most recent runs
func (cm *CacheManager) RecordRun(run RunRecord) error {
	manifest, err := cm.LoadManifest()
	if err != nil {
		return err
	}

	manifest.Runs = append(manifest.Runs, run)
	if len(manifest.Runs) > maxRunHistory {
		manifest.Runs = manifest.Runs[len(manifest.Runs)-maxRunHistory:]
	}
	return cm.SaveManifest(manifest)
}

// LastRun returns the most recent run, or nil if none was recorded
func (cm *CacheManager) LastRun() (*RunRecord, error) {
	manifest, err := cm.LoadManifest()
	if err != nil {
		return nil, err
	}
	if len(manifest.Runs) == 0 {
		return nil, nil
	}
	return &manifest.Runs[len(manifest.Runs)-1], nil
}

// ClearCache removes all recorded runs
func (cm *CacheManager) ClearCache() error {
	err := os.Remove(cm.GetManifestPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
