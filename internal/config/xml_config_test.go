package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ModalClient.config")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected default config file to be written: %v", err)
	}
	if !strings.Contains(string(data), "<ModalClient>") {
		t.Errorf("Expected ModalClient root element, got:\n%s", data)
	}

	if cfg.Backend.Path != "/predict" {
		t.Errorf("Expected default backend path /predict, got %s", cfg.Backend.Path)
	}
	if want := filepath.Join(dir, "data", "uploads"); cfg.GetUploadDir() != want {
		t.Errorf("Expected upload dir %s, got %s", want, cfg.GetUploadDir())
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ModalClient.config")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<ModalClient>
  <Server><Port>9100</Port></Server>
  <Backend><URL>http://analysis.local:5000</URL><TimeoutSeconds>45</TimeoutSeconds></Backend>
  <Processing><ClassificationRules>rules.yaml</ClassificationRules></Processing>
</ModalClient>`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Backend.URL != "http://analysis.local:5000" {
		t.Errorf("Unexpected backend URL %s", cfg.Backend.URL)
	}
	if cfg.Backend.Path != "/predict" {
		t.Errorf("Expected default path to survive, got %q", cfg.Backend.Path)
	}
	if cfg.BackendTimeout() != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %v", cfg.BackendTimeout())
	}
	if want := filepath.Join(dir, "rules.yaml"); cfg.Processing.ClassificationRules != want {
		t.Errorf("Expected rules path %s, got %s", want, cfg.Processing.ClassificationRules)
	}
	if cfg.SessionMaxAge() != 30*time.Minute {
		t.Errorf("Expected default session age, got %v", cfg.SessionMaxAge())
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "7001")
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("ANALYSIS_BACKEND_URL", "http://backend:8000")
	t.Setenv("CLASSIFICATION_RULES", "/etc/modal/rules.yaml")

	cfg, err := LoadConfig(filepath.Join(dir, "ModalClient.config"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 7001 {
		t.Errorf("Expected port 7001, got %d", cfg.Server.Port)
	}
	if cfg.GetDataDir() != dataDir {
		t.Errorf("Expected data dir %s, got %s", dataDir, cfg.GetDataDir())
	}
	if cfg.Storage.HistoryDatabase != filepath.Join(dataDir, "history.duckdb") {
		t.Errorf("Expected history under DATA_DIR, got %s", cfg.Storage.HistoryDatabase)
	}
	if cfg.Backend.URL != "http://backend:8000" {
		t.Errorf("Unexpected backend URL %s", cfg.Backend.URL)
	}
	if cfg.Processing.ClassificationRules != "/etc/modal/rules.yaml" {
		t.Errorf("Unexpected rules path %s", cfg.Processing.ClassificationRules)
	}
	if cfg.GetServerAddr() != "0.0.0.0:7001" {
		t.Errorf("Unexpected server address %s", cfg.GetServerAddr())
	}
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ModalClient.config")
	os.WriteFile(path, []byte("<ModalClient><Server>"), 0644)

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected parse error for truncated XML")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, d := range []string{cfg.GetDataDir(), cfg.GetUploadDir()} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s", d)
		}
	}
}
