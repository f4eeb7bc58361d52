package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: qiita
    base_url: https://qiita.internal/api/v2
    timeout_seconds: 5
    request_delay_ms: 750
  - id: zenn
    enabled: false
  - id: github
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if len(reg.All()) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(reg.All()))
	}
	if len(reg.Enabled()) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(reg.Enabled()))
	}

	qiita, ok := reg.ByID("qiita")
	if !ok {
		t.Fatalf("expected qiita to be loaded")
	}
	if qiita.BaseURL != "https://qiita.internal/api/v2" {
		t.Fatalf("unexpected base_url: %s", qiita.BaseURL)
	}
	if qiita.Timeout() != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", qiita.Timeout())
	}
	if qiita.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", qiita.RequestDelay())
	}

	// Defaults fill in when omitted.
	github, _ := reg.ByID("github")
	if github.BaseURL != "https://api.github.com" {
		t.Fatalf("expected default base_url, got %s", github.BaseURL)
	}
	if github.PerPage != 30 {
		t.Fatalf("expected default per_page, got %d", github.PerPage)
	}
}

func TestLoadRegistryRejectsUnknownSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: hackernews
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected unknown source error, got nil")
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: zenn
  - id: zenn
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected duplicate source error, got nil")
	}
}

func TestDefaultRegistryCoversAllSources(t *testing.T) {
	reg := DefaultRegistry()
	if len(reg.Enabled()) != 3 {
		t.Fatalf("expected 3 enabled sources, got %d", len(reg.Enabled()))
	}
	for _, id := range []string{"qiita", "zenn", "github"} {
		if _, ok := reg.ByID(id); !ok {
			t.Fatalf("expected %s in default registry", id)
		}
	}
}
