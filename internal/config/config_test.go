package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_DefaultsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFile(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".codexrc"), envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.URL != "http://localhost:8080" {
		t.Errorf("expected default URL, got %q", cfg.Store.URL)
	}
	if cfg.Embedding.Model != "all-MiniLM-L6-v2" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Collection.Name != "CortexNote" {
		t.Errorf("expected default collection, got %q", cfg.Collection.Name)
	}
	if cfg.Store.GRPCPort != 50051 {
		t.Errorf("expected grpc port 50051, got %d", cfg.Store.GRPCPort)
	}
	if cfg.Store.ProbeTimeoutSec != 2 {
		t.Errorf("expected probe timeout 2, got %d", cfg.Store.ProbeTimeoutSec)
	}
	if cfg.Query.Limit != 3 {
		t.Errorf("expected query limit 3, got %d", cfg.Query.Limit)
	}
}

func TestLoadFile_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "local.yaml", `
store:
  url: http://file-host:7000
embedding:
  model: file-model
collection:
  name: FileNotes
`)
	rcPath := writeFile(t, dir, ".codexrc", "VECTRO_URL=http://rc-host:7001\n")

	tests := []struct {
		name      string
		env       map[string]string
		wantURL   string
		wantModel string
		wantClass string
	}{
		{
			name:      "file beats rc and defaults",
			env:       nil,
			wantURL:   "http://file-host:7000",
			wantModel: "file-model",
			wantClass: "FileNotes",
		},
		{
			name: "env beats file",
			env: map[string]string{
				"VECTRO_URL":  "http://env-host:7002",
				"EMBED_MODEL": "env-model",
				"CLASS_NAME":  "EnvNotes",
			},
			wantURL:   "http://env-host:7002",
			wantModel: "env-model",
			wantClass: "EnvNotes",
		},
		{
			name:      "empty env value does not override",
			env:       map[string]string{"VECTRO_URL": ""},
			wantURL:   "http://file-host:7000",
			wantModel: "file-model",
			wantClass: "FileNotes",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFile(cfgPath, rcPath, envMap(tc.env))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Store.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", cfg.Store.URL, tc.wantURL)
			}
			if cfg.Embedding.Model != tc.wantModel {
				t.Errorf("Model = %q, want %q", cfg.Embedding.Model, tc.wantModel)
			}
			if cfg.Collection.Name != tc.wantClass {
				t.Errorf("Collection = %q, want %q", cfg.Collection.Name, tc.wantClass)
			}
		})
	}
}

func TestLoadFile_CodexRC(t *testing.T) {
	dir := t.TempDir()
	rcPath := writeFile(t, dir, ".codexrc", "# comment\nOTHER=1\nVECTRO_URL= http://rc-host:7001 \n")

	cfg, err := LoadFile(filepath.Join(dir, "missing.yaml"), rcPath, envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.URL != "http://rc-host:7001" {
		t.Errorf("expected rc URL, got %q", cfg.Store.URL)
	}
}

func TestLoadFile_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "local.yaml", `
embedding:
  provider: openai
  api_key: ${TEST_KEY}
  base_url: ${TEST_BASE:-https://api.example.com/v1}
`)

	cfg, err := LoadFile(cfgPath, "", envMap(map[string]string{"TEST_KEY": "secret"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "secret" {
		t.Errorf("expected expanded key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.BaseURL != "https://api.example.com/v1" {
		t.Errorf("expected default base URL, got %q", cfg.Embedding.BaseURL)
	}
}

func TestLoadFile_ShippedLocalConfig(t *testing.T) {
	local := filepath.Join("..", "..", "config", "local.yaml")
	dir := t.TempDir()

	tests := []struct {
		name    string
		rc      string
		env     map[string]string
		wantURL string
	}{
		{name: "defaults", wantURL: "http://localhost:8080"},
		{name: "codexrc", rc: "VECTRO_URL=http://vectro.internal:8080\n", wantURL: "http://vectro.internal:8080"},
		{
			name:    "env beats codexrc",
			rc:      "VECTRO_URL=http://vectro.internal:8080\n",
			env:     map[string]string{"VECTRO_URL": "http://env-host:9000"},
			wantURL: "http://env-host:9000",
		},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rcPath := filepath.Join(dir, fmt.Sprintf("missing-%d", i))
			if tc.rc != "" {
				rcPath = writeFile(t, dir, fmt.Sprintf(".codexrc-%d", i), tc.rc)
			}

			cfg, err := LoadFile(local, rcPath, envMap(tc.env))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Store.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", cfg.Store.URL, tc.wantURL)
			}
			if cfg.Store.GRPCPort != 50051 {
				t.Errorf("GRPCPort = %d, want 50051", cfg.Store.GRPCPort)
			}
			if cfg.Store.Driver != DriverQdrant {
				t.Errorf("Driver = %q, want %q", cfg.Store.Driver, DriverQdrant)
			}
		})
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "local.yaml", "store: [unclosed")

	if _, err := LoadFile(cfgPath, "", envMap(nil)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv_InvalidGRPCPort(t *testing.T) {
	var cfg Config
	err := cfg.ApplyEnv(envMap(map[string]string{"VECTRO_GRPC_PORT": "not-a-port"}))
	if err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestApplyEnv_InputQuery(t *testing.T) {
	var cfg Config
	if err := cfg.ApplyEnv(envMap(map[string]string{"INPUT_QUERY": "How can Cortex assist with code?"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Query.Input != "How can Cortex assist with code?" {
		t.Errorf("unexpected query input %q", cfg.Query.Input)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(_ *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "weaviate" }, true},
		{"url without host", func(c *Config) { c.Store.URL = "localhost" }, true},
		{"embedded ignores url", func(c *Config) { c.Store.Driver = DriverEmbedded; c.Store.URL = "" }, false},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "sentence-transformers" }, true},
		{"port out of range", func(c *Config) { c.Store.GRPCPort = 70000 }, true},
		{"blank collection", func(c *Config) { c.Collection.Name = "  " }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Store:     StoreConfig{Driver: DriverValkey, GRPCPort: 6334, ProbeTimeoutSec: 5},
		Embedding: EmbeddingConfig{Provider: ProviderOpenAI, Dimensions: 1536},
		Query:     QueryConfig{Limit: 10},
	}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != DriverValkey {
		t.Errorf("expected driver to stay valkey, got %q", cfg.Store.Driver)
	}
	if cfg.Store.GRPCPort != 6334 {
		t.Errorf("expected GRPCPort=6334, got %d", cfg.Store.GRPCPort)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Query.Limit != 10 {
		t.Errorf("expected Limit=10, got %d", cfg.Query.Limit)
	}
}
