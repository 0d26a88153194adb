// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Publish.MaxAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", cfg.Publish.MaxAttempts)
	}
	if cfg.Publish.BaseDelayMS != 2000 {
		t.Errorf("expected base delay 2000ms, got %d", cfg.Publish.BaseDelayMS)
	}
	if cfg.Extractor.Strategy != "cookie" {
		t.Errorf("expected cookie strategy, got %s", cfg.Extractor.Strategy)
	}
	if len(cfg.Extractor.FallbackStrategies) != 4 {
		t.Errorf("expected 4 fallback strategies, got %d", len(cfg.Extractor.FallbackStrategies))
	}
}

func TestConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SERIESGEN_HOME", tmpDir)

	if dir := Dir(); dir != tmpDir {
		t.Errorf("expected %s, got %s", tmpDir, dir)
	}
	if got := HistoryDBPath(); got != filepath.Join(tmpDir, "history.db") {
		t.Errorf("unexpected history path %s", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SERIESGEN_HOME", tmpDir)

	cfg := Default()
	cfg.Publish.MaxAttempts = 5
	cfg.Extractor.FallbackStrategies = []string{"proxy", "manual"}

	if err := Save(cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Publish.MaxAttempts != 5 {
		t.Errorf("expected max attempts 5, got %d", loaded.Publish.MaxAttempts)
	}
	if len(loaded.Extractor.FallbackStrategies) != 2 {
		t.Errorf("expected 2 fallback strategies, got %v", loaded.Extractor.FallbackStrategies)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Series.WordsPerArticle != 3500 {
		t.Errorf("expected default words 3500, got %d", cfg.Series.WordsPerArticle)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("publish:\n  max_attempts: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Publish.MaxAttempts != 7 {
		t.Errorf("expected 7, got %d", cfg.Publish.MaxAttempts)
	}
	if cfg.Publish.BaseDelayMS != 2000 {
		t.Errorf("expected default base delay kept, got %d", cfg.Publish.BaseDelayMS)
	}
}

func TestSaveToCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "custom.yaml")
	cfg := Default()
	cfg.Research.Feeds = []string{"https://example.com/feed.xml"}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(loaded.Research.Feeds) != 1 || loaded.Research.Feeds[0] != "https://example.com/feed.xml" {
		t.Errorf("unexpected feeds %v", loaded.Research.Feeds)
	}
}
