package llm

import (
	"errors"
	"testing"
	"time"
)

func TestProviderConfig_Merge(t *testing.T) {
	base := ProviderConfig{
		Provider:   ProviderAnthropic,
		BaseURL:    "https://api.anthropic.com/v1/messages",
		AuthMethod: AuthAPIKey,
		Headers:    map[string]string{"anthropic-version": "2023-06-01"},
	}

	merged := base.Merge(ProviderConfig{
		Model:   "claude-sonnet-4-20250514",
		APIKey:  "sk-test-123456",
		Headers: map[string]string{"x-trace": "1"},
	})

	if merged.BaseURL != base.BaseURL {
		t.Errorf("BaseURL should be kept, got %s", merged.BaseURL)
	}
	if merged.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model should be overridden, got %s", merged.Model)
	}
	if merged.Headers["anthropic-version"] != "2023-06-01" || merged.Headers["x-trace"] != "1" {
		t.Errorf("Headers should be merged, got %v", merged.Headers)
	}

	// 元の設定は変更されない
	if _, ok := base.Headers["x-trace"]; ok {
		t.Error("Merge must not mutate the receiver headers")
	}
}

func TestProviderConfig_WithDefaults(t *testing.T) {
	cfg := ProviderConfig{}.WithDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.MaxRetries)
	}

	disabled := ProviderConfig{MaxRetries: -1}.WithDefaults()
	if disabled.MaxRetries != 0 {
		t.Errorf("Negative max retries should disable retries, got %d", disabled.MaxRetries)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantField string
	}{
		{"missing base url", ProviderConfig{Model: "m", AuthMethod: AuthNone}, "baseURL"},
		{"missing model", ProviderConfig{BaseURL: "http://x", AuthMethod: AuthNone}, "model"},
		{"bearer without key", ProviderConfig{BaseURL: "http://x", Model: "m", AuthMethod: AuthBearer}, "apiKey"},
		{"api-key without key", ProviderConfig{BaseURL: "http://x", Model: "m", AuthMethod: AuthAPIKey}, "apiKey"},
		{"none without key", ProviderConfig{BaseURL: "http://x", Model: "m", AuthMethod: AuthNone}, ""},
		{"custom without key", ProviderConfig{BaseURL: "http://x", Model: "m", AuthMethod: AuthCustom}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(ProviderLocal, tt.cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	std := Response{Standard: &StandardResponse{
		Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: "hello"}}},
	}}
	if std.Text() != "hello" {
		t.Errorf("Expected 'hello', got '%s'", std.Text())
	}

	custom := Response{Custom: &CustomResponse{Content: "world"}}
	if custom.Text() != "world" {
		t.Errorf("Expected 'world', got '%s'", custom.Text())
	}

	empty := Response{Standard: &StandardResponse{}}
	if empty.Text() != "" {
		t.Errorf("Expected empty text for no choices, got '%s'", empty.Text())
	}
}

func TestNewRequest_CopiesMessages(t *testing.T) {
	msgs := []Message{{Role: RoleUser, Content: "a"}}
	req := NewRequest("m", msgs, 0.6, 10, map[string]any{"top_p": 0.9})

	msgs[0].Content = "changed"
	if req.Messages[0].Content != "a" {
		t.Error("Request must hold its own copy of the messages")
	}
	if req.Stream {
		t.Error("Stream should always be false")
	}
}
