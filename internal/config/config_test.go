// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	path := writeConfig(t, `
agents:
  - name: Vega
    credential: gsk_0123456789012345678901234567890123456789
    archetype: precision
  - name: Orion
    credential: sk-0123456789012345678901234567890123456789
debate:
  rounds: 5
research:
  tavily_key: tvly-test
moderator:
  mode: llm
voice:
  enabled: true
  endpoint: http://localhost:9999/speak
storage:
  path: /tmp/foresight.db
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(cfg.Agents))
	}
	if cfg.Agents[0].Name != "Vega" || cfg.Agents[0].Archetype != "precision" {
		t.Errorf("unexpected first agent %+v", cfg.Agents[0])
	}
	if cfg.Agents[1].Archetype != "precision" {
		t.Errorf("expected archetype default for second agent, got %q", cfg.Agents[1].Archetype)
	}
	if cfg.Debate.Rounds != 5 {
		t.Errorf("expected rounds 5, got %d", cfg.Debate.Rounds)
	}
	if cfg.Research.TavilyKey != "tvly-test" {
		t.Errorf("unexpected tavily key %q", cfg.Research.TavilyKey)
	}
	if cfg.Moderator.Mode != "llm" {
		t.Errorf("unexpected moderator mode %q", cfg.Moderator.Mode)
	}
	if cfg.Moderator.Credential != cfg.Agents[0].Credential {
		t.Error("llm moderator should default to the first agent credential")
	}
	if !cfg.Voice.Enabled || cfg.Voice.Endpoint != "http://localhost:9999/speak" {
		t.Errorf("unexpected voice config %+v", cfg.Voice)
	}
	if cfg.Storage.Path != "/tmp/foresight.db" {
		t.Errorf("unexpected storage path %q", cfg.Storage.Path)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_FORESIGHT_KEY", "gsk_from_environment_0123456789012345678901")
	path := writeConfig(t, `
agents:
  - name: Vega
    credential: ${TEST_FORESIGHT_KEY}
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agents[0].Credential != "gsk_from_environment_0123456789012345678901" {
		t.Errorf("env var not expanded, got %q", cfg.Agents[0].Credential)
	}
}

func TestLoadMissingFileUsesEnvFallback(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_0123456789012345678901234567890123456789")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("XAI_API_KEY", "xai-0123456789012345678901234567890123456789")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 env agents, got %d", len(cfg.Agents))
	}
	if cfg.Agents[0].Name != "Vega" || cfg.Agents[1].Name != "Lyra" {
		t.Errorf("unexpected env agent order: %q, %q", cfg.Agents[0].Name, cfg.Agents[1].Name)
	}
	if cfg.Debate.Rounds != 3 {
		t.Errorf("expected default rounds 3, got %d", cfg.Debate.Rounds)
	}
	if cfg.Moderator.Mode != "template" {
		t.Errorf("expected template moderator default, got %q", cfg.Moderator.Mode)
	}
	if cfg.Research.TavilyKey != "tvly-env" {
		t.Errorf("expected tavily key from env, got %q", cfg.Research.TavilyKey)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "agents: [unclosed")
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
