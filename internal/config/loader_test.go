package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/config"
)

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
providers:
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
  llm_fallbacks:
    - name: ollama
      base_url: http://localhost:11434
      model: llama3
  stt:
    name: whisper
    base_url: http://localhost:9000
  tts:
    name: coqui
    base_url: http://localhost:5002
interview:
  questions: 3
  language: en
  voice:
    provider: coqui
    voice_id: p225
report:
  jsonl_path: /tmp/reports.jsonl
`

func TestLoadFromReader_ParsesAllSections(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Providers.LLM.Name != "openai" || cfg.Providers.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM entry = %+v", cfg.Providers.LLM)
	}
	if len(cfg.Providers.LLMFallbacks) != 1 || cfg.Providers.LLMFallbacks[0].Name != "ollama" {
		t.Errorf("LLMFallbacks = %+v", cfg.Providers.LLMFallbacks)
	}
	if cfg.Interview.Questions != 3 || cfg.Interview.Language != "en" {
		t.Errorf("Interview = %+v", cfg.Interview)
	}
	if cfg.Interview.Voice.VoiceID != "p225" {
		t.Errorf("VoiceID = %q, want p225", cfg.Interview.Voice.VoiceID)
	}
	if cfg.Report.JSONLPath != "/tmp/reports.jsonl" {
		t.Errorf("JSONLPath = %q", cfg.Report.JSONLPath)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  max_connections: 100
providers:
  llm:
    name: openai
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("LoadFromReader accepted unknown field max_connections")
	}
}

func TestLoadFromReader_MalformedYAML(t *testing.T) {
	if _, err := config.LoadFromReader(strings.NewReader("server: [")); err == nil {
		t.Fatal("LoadFromReader accepted malformed yaml")
	}
}

func TestLoadFromReader_InvalidValuesRejected(t *testing.T) {
	yaml := `
server:
  log_level: loud
providers:
  llm:
    name: openai
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "server.log_level") {
		t.Fatalf("err = %v, want log_level validation failure", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.STT.Name != "whisper" {
		t.Errorf("STT name = %q, want whisper", cfg.Providers.STT.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of missing file returned nil error")
	}
}
