package llm

import (
	"fmt"
	"time"
)

// ProviderName はLLMプロバイダー種別
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderLocal     ProviderName = "local"
)

// AuthMethod は認証方式
type AuthMethod string

const (
	AuthAPIKey AuthMethod = "api-key"
	AuthBearer AuthMethod = "bearer"
	AuthNone   AuthMethod = "none"
	AuthCustom AuthMethod = "custom"
)

// RequiresKey はAPIキー必須の認証方式かを判定
func (a AuthMethod) RequiresKey() bool {
	return a == AuthAPIKey || a == AuthBearer
}

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// ProviderConfig は1つのLLMエンドポイントを表す設定
type ProviderConfig struct {
	Provider            ProviderName
	BaseURL             string
	Model               string
	AuthMethod          AuthMethod
	APIKey              string
	Headers             map[string]string
	Timeout             time.Duration
	MaxRetries          int // 0はデフォルト、負数でリトライ無効
	CustomRequestFormat bool
}

// Merge はoverのゼロ値でないフィールドで上書きした新しい設定を返す
func (c ProviderConfig) Merge(over ProviderConfig) ProviderConfig {
	out := c
	if over.Provider != "" {
		out.Provider = over.Provider
	}
	if over.BaseURL != "" {
		out.BaseURL = over.BaseURL
	}
	if over.Model != "" {
		out.Model = over.Model
	}
	if over.AuthMethod != "" {
		out.AuthMethod = over.AuthMethod
	}
	if over.APIKey != "" {
		out.APIKey = over.APIKey
	}
	if over.Timeout != 0 {
		out.Timeout = over.Timeout
	}
	if over.MaxRetries != 0 {
		out.MaxRetries = over.MaxRetries
	}
	if over.CustomRequestFormat {
		out.CustomRequestFormat = true
	}

	out.Headers = make(map[string]string, len(c.Headers)+len(over.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	for k, v := range over.Headers {
		out.Headers[k] = v
	}
	return out
}

// WithDefaults はタイムアウトとリトライ回数の既定値を補完
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Strategy はプロバイダーごとのリクエスト/レスポンス変換と認証の抽象化
type Strategy interface {
	Name() ProviderName
	DefaultConfig() ProviderConfig
	TransformRequest(req Request) map[string]any
	TransformResponse(body []byte) (Response, error)
	AuthHeaders(apiKey string) map[string]string
	ValidateConfig(cfg ProviderConfig) error
}

// ValidateRequired はbaseURL・model・APIキーの必須項目を検証
func ValidateRequired(name ProviderName, cfg ProviderConfig) error {
	if cfg.BaseURL == "" {
		return &ConfigError{Provider: name, Field: "baseURL"}
	}
	if cfg.Model == "" {
		return &ConfigError{Provider: name, Field: "model"}
	}
	if cfg.AuthMethod.RequiresKey() && cfg.APIKey == "" {
		return &ConfigError{Provider: name, Field: "apiKey", Reason: fmt.Sprintf("is required for auth method %q", cfg.AuthMethod)}
	}
	return nil
}
