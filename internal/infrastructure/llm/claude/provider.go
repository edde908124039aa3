package claude

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/anthropics/anthropic-sdk-go"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 1000
)

// Strategy はAnthropic Messages APIのStrategy実装
type Strategy struct{}

// New は新しいStrategyを作成
func New() *Strategy {
	return &Strategy{}
}

// Name はプロバイダー名を返す
func (s *Strategy) Name() llm.ProviderName {
	return llm.ProviderAnthropic
}

// DefaultConfig はAnthropicの既定設定を返す
func (s *Strategy) DefaultConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:            llm.ProviderAnthropic,
		BaseURL:             defaultBaseURL,
		AuthMethod:          llm.AuthAPIKey,
		CustomRequestFormat: true,
		Headers: map[string]string{
			"anthropic-version": anthropicVersion,
		},
	}
}

// TransformRequest はsystemメッセージをトップレベルのsystemへ移したボディを組み立てる
func (s *Strategy) TransformRequest(req llm.Request) map[string]any {
	var system []string
	messages := make([]llm.Message, 0, len(req.Messages))

	for _, msg := range req.Messages {
		// Messages APIはsystemロールを受け付けない
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		messages = append(messages, msg)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := map[string]any{
		"max_tokens":  maxTokens,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.Model != "" {
		body["model"] = req.Model
	}
	if joined := strings.Join(system, "\n"); joined != "" {
		body["system"] = joined
	}
	for k, v := range req.Extra {
		body[k] = v
	}
	return body
}

// TransformResponse は先頭コンテンツブロックのテキストをカスタム形式に取り出す
func (s *Strategy) TransformResponse(body []byte) (llm.Response, error) {
	var msg anthropic.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return llm.Response{}, fmt.Errorf("failed to decode anthropic message: %w", err)
	}

	var metadata map[string]any
	if err := json.Unmarshal(body, &metadata); err != nil {
		return llm.Response{}, fmt.Errorf("failed to decode anthropic metadata: %w", err)
	}

	var content string
	if len(msg.Content) > 0 {
		content = msg.Content[0].Text
	}

	return llm.Response{Custom: &llm.CustomResponse{
		Content:  content,
		Metadata: metadata,
	}}, nil
}

// AuthHeaders はx-api-keyとanthropic-versionヘッダーを返す
func (s *Strategy) AuthHeaders(apiKey string) map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"anthropic-version": anthropicVersion,
	}
	if apiKey != "" {
		headers["x-api-key"] = apiKey
	}
	return headers
}

// ValidateConfig は必須項目を検証
func (s *Strategy) ValidateConfig(cfg llm.ProviderConfig) error {
	return llm.ValidateRequired(s.Name(), cfg)
}
