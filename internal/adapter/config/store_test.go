package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/filesystem"
)

type failingKeyWriter struct{}

func (failingKeyWriter) UpdateAPIKey(context.Context, string) error {
	return errors.New("disk full")
}

func sampleConfig() *Config {
	return &Config{
		AI:       AIConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-secret-123456"},
		Locators: ProjectConfig{Directory: "src/locators", ClassSuffixes: []string{"Locators"}},
		Pages:    ProjectConfig{Directory: "src/pages"},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

func TestStore_Save(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	store := NewStore(fs, zerolog.Nop())
	store.now = func() time.Time { return time.Date(2026, 3, 2, 9, 5, 7, 0, time.UTC) }
	ctx := context.Background()

	if err := store.Save(ctx, sampleConfig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	content, err := fs.ReadFile(ctx, FileName)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(content, "sk-secret") {
		t.Error("API key must not be written to the config file")
	}

	var saved Config
	if err := yaml.Unmarshal([]byte(content), &saved); err != nil {
		t.Fatalf("Saved config is not valid YAML: %v", err)
	}
	if saved.LastUpdated != "02/03/2026, 09:05:07" {
		t.Errorf("Unexpected lastUpdated: %q", saved.LastUpdated)
	}
	if saved.AI.Model != "gpt-4o-mini" || saved.Locators.Directory != "src/locators" {
		t.Errorf("Unexpected saved config: %+v", saved)
	}

	key, err := NewEnvManager(fs).APIKey()
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "sk-secret-123456" {
		t.Errorf("Expected API key in .env, got %q", key)
	}
}

func TestStore_Save_WithoutKey(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	cfg := sampleConfig()
	cfg.AI.APIKey = ""

	if err := NewStore(fs, zerolog.Nop()).Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if fs.Exists(EnvFileName) {
		t.Error(".env should not be created without an API key")
	}
}

func TestStore_Save_RestoresBackups(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	ctx := context.Background()

	original := "ai:\n  provider: local\n"
	if err := fs.WriteFile(ctx, FileName, original); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store := NewStore(fs, zerolog.Nop())
	store.env = failingKeyWriter{}

	err := store.Save(ctx, sampleConfig())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Expected save error, got %v", err)
	}

	content, _ := fs.ReadFile(ctx, FileName)
	if content != original {
		t.Errorf("Config should be restored, got %q", content)
	}
}

func TestEnvManager_UpdateAPIKey(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	ctx := context.Background()
	if err := fs.WriteFile(ctx, EnvFileName, "OTHER=value\nAI_API_KEY=old-key-000000\n"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m := NewEnvManager(fs)
	if key, _ := m.APIKey(); key != "old-key-000000" {
		t.Errorf("Expected existing key, got %q", key)
	}

	if err := m.UpdateAPIKey(ctx, "new-key-111111"); err != nil {
		t.Fatalf("UpdateAPIKey failed: %v", err)
	}
	if key, _ := m.APIKey(); key != "new-key-111111" {
		t.Errorf("Expected updated key, got %q", key)
	}

	content, _ := fs.ReadFile(ctx, EnvFileName)
	if !strings.Contains(content, "OTHER") {
		t.Errorf("Other variables should be kept: %q", content)
	}
	if strings.Count(content, APIKeyEnv) != 1 {
		t.Errorf("API key should appear once: %q", content)
	}
}

func TestEnvManager_MissingFile(t *testing.T) {
	m := NewEnvManager(filesystem.NewService(t.TempDir()))
	key, err := m.APIKey()
	if err != nil || key != "" {
		t.Errorf("Expected empty key without error, got %q, %v", key, err)
	}
}

func TestEnvManager_UpdateAPIKey_AppendsKeepingComments(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	ctx := context.Background()
	if err := fs.WriteFile(ctx, EnvFileName, "# local settings\nOTHER=value"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m := NewEnvManager(fs)
	if err := m.UpdateAPIKey(ctx, "new-key-111111"); err != nil {
		t.Fatalf("UpdateAPIKey failed: %v", err)
	}

	content, _ := fs.ReadFile(ctx, EnvFileName)
	want := "# local settings\nOTHER=value\nAI_API_KEY=\"new-key-111111\"\n"
	if content != want {
		t.Errorf("Unexpected .env content:\n got %q\nwant %q", content, want)
	}
	if key, _ := m.APIKey(); key != "new-key-111111" {
		t.Errorf("Expected appended key, got %q", key)
	}
}

func TestEnvManager_UpdateAPIKey_CreatesFile(t *testing.T) {
	fs := filesystem.NewService(t.TempDir())
	m := NewEnvManager(fs)

	if err := m.UpdateAPIKey(context.Background(), "new-key-111111"); err != nil {
		t.Fatalf("UpdateAPIKey failed: %v", err)
	}
	if key, _ := m.APIKey(); key != "new-key-111111" {
		t.Errorf("Expected stored key, got %q", key)
	}
}
