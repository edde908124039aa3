package local

import (
	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/openai"
)

// llama.cpp等のOpenAI互換サーバーの既定エンドポイント
const defaultBaseURL = "http://localhost:8080/v1/chat/completions"

// Strategy はローカル(セルフホスト)LLMのStrategy実装
type Strategy struct{}

// New は新しいStrategyを作成
func New() *Strategy {
	return &Strategy{}
}

// Name はプロバイダー名を返す
func (s *Strategy) Name() llm.ProviderName {
	return llm.ProviderLocal
}

// DefaultConfig は認証なしの既定設定を返す
func (s *Strategy) DefaultConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:   llm.ProviderLocal,
		BaseURL:    defaultBaseURL,
		AuthMethod: llm.AuthNone,
	}
}

// TransformRequest はOpenAI互換のフラットなボディを返す
func (s *Strategy) TransformRequest(req llm.Request) map[string]any {
	return openai.FlatBody(req)
}

// TransformResponse は標準形式のレスポンスに変換
func (s *Strategy) TransformResponse(body []byte) (llm.Response, error) {
	return openai.DecodeCompletion(body)
}

// AuthHeaders はContent-Typeのみを返す
func (s *Strategy) AuthHeaders(string) map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

// ValidateConfig はbaseURLを検証。モデル名は省略時サーバー側の既定が使われる
func (s *Strategy) ValidateConfig(cfg llm.ProviderConfig) error {
	if cfg.BaseURL == "" {
		return &llm.ConfigError{Provider: s.Name(), Field: "baseURL"}
	}
	if cfg.AuthMethod.RequiresKey() && cfg.APIKey == "" {
		return &llm.ConfigError{Provider: s.Name(), Field: "apiKey"}
	}
	return nil
}
