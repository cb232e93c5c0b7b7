package factory

import (
	"context"
	"strings"
	"testing"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/config"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

const goodKey = "sk-test-0123456789abcdef"

func TestSelect(t *testing.T) {
	cfg := config.Default()
	limiter := NewLimiter(cfg.Concurrency)

	tests := []struct {
		name         string
		mode         model.Mode
		creds        config.Credentials
		wantBackend  string
		wantFallback string
	}{
		{name: "demo", mode: model.ModeDemo, creds: config.Credentials{OpenAI: goodKey}, wantBackend: "deterministic"},
		{name: "openai with key", mode: model.ModeOpenAI, creds: config.Credentials{OpenAI: goodKey}, wantBackend: "openai"},
		{name: "anthropic with key", mode: model.ModeAnthropic, creds: config.Credentials{Anthropic: goodKey}, wantBackend: "anthropic"},
		{name: "gemini with key", mode: model.ModeGemini, creds: config.Credentials{Gemini: goodKey}, wantBackend: "gemini"},
		{name: "openai missing key", mode: model.ModeOpenAI, wantBackend: "deterministic", wantFallback: "credential missing"},
		{name: "gemini malformed key", mode: model.ModeGemini, creds: config.Credentials{Gemini: "short"}, wantBackend: "deterministic", wantFallback: "credential malformed"},
		{name: "key for other provider", mode: model.ModeAnthropic, creds: config.Credentials{OpenAI: goodKey}, wantBackend: "deterministic", wantFallback: "credential missing"},
		{name: "unknown mode", mode: "llama", creds: config.Credentials{OpenAI: goodKey}, wantBackend: "deterministic", wantFallback: "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(context.Background(), tt.mode, tt.creds, cfg, limiter)
			if got := sel.Backend.Name(); got != tt.wantBackend {
				t.Errorf("Backend.Name() = %q, want %q", got, tt.wantBackend)
			}
			if tt.wantFallback == "" && sel.Fallback != "" {
				t.Errorf("Fallback = %q, want none", sel.Fallback)
			}
			if !strings.Contains(sel.Fallback, tt.wantFallback) {
				t.Errorf("Fallback = %q, want to contain %q", sel.Fallback, tt.wantFallback)
			}
		})
	}
}

func TestWellFormed(t *testing.T) {
	for key, want := range map[string]bool{
		"":                          false,
		"short":                     false,
		"sk-with space-0123456789":  false,
		"sk-tab\t0123456789abcdef":  false,
		goodKey:                     true,
		"AIzaSyA-0123456789_abcdef": true,
	} {
		if got := WellFormed(key); got != want {
			t.Errorf("WellFormed(%q) = %v, want %v", key, got, want)
		}
	}
}
