// Package broker は対応LLMプロバイダーへの単一のchat completion窓口を提供する
// リトライとエラー正規化を含む
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/provider"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/transport"
)

const (
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 8192
)

// SleepFunc はdだけ待機する。ctxが終了した場合はそのエラーを返す
type SleepFunc func(ctx context.Context, d time.Duration) error

// Broker はNew以降不変で、並行呼び出しに安全
type Broker struct {
	cfg         llm.ProviderConfig
	strategy    llm.Strategy
	client      *transport.Client
	logger      zerolog.Logger
	sleep       SleepFunc
	temperature float64
	maxTokens   int
}

// Option はBrokerの設定
type Option func(*Broker)

// tokenSourcer はBearerトークンをoauth2で供給するStrategy
type tokenSourcer interface {
	TokenSource(apiKey string) oauth2.TokenSource
}

// WithLogger はリクエストとリトライのログ出力先を設定
func WithLogger(l zerolog.Logger) Option {
	return func(b *Broker) { b.logger = l }
}

// WithSleep はリトライ待機関数を差し替える
func WithSleep(fn SleepFunc) Option {
	return func(b *Broker) { b.sleep = fn }
}

// WithDefaults は呼び出し側が指定しない場合のtemperatureとmax tokensを設定
func WithDefaults(temperature float64, maxTokens int) Option {
	return func(b *Broker) {
		b.temperature = temperature
		b.maxTokens = maxTokens
	}
}

// New はプロバイダーを解決し、設定を検証してトランスポートを構築する
// cfg.Providerが空の場合はcfg.BaseURLから判定する
func New(cfg llm.ProviderConfig, opts ...Option) (*Broker, error) {
	b := &Broker{
		logger:      zerolog.Nop(),
		sleep:       sleepContext,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(b)
	}

	name := cfg.Provider
	if name == "" {
		name = provider.Detect(cfg.BaseURL)
	}

	strategy, merged, err := provider.NewFactory().CreateFromPreset(name, cfg)
	if err != nil {
		return nil, err
	}

	apiKey := merged.APIKey
	if !merged.AuthMethod.RequiresKey() {
		apiKey = ""
	}

	headers := strategy.AuthHeaders(apiKey)

	// トークン供給元を持つStrategyはoauth2トランスポートで認証する
	var topts []transport.Option
	if ts, ok := strategy.(tokenSourcer); ok {
		if src := ts.TokenSource(apiKey); src != nil {
			delete(headers, "Authorization")
			topts = append(topts, transport.WithTokenSource(src))
		}
	}

	for k, v := range merged.Headers {
		headers[k] = v
	}

	b.cfg = merged
	b.strategy = strategy
	b.client = transport.New(merged.BaseURL, merged.Timeout, headers, topts...)
	b.client.Use(b.retryInterceptor)

	b.logger.Debug().
		Str("provider", string(name)).
		Str("base_url", merged.BaseURL).
		Str("model", merged.Model).
		Int("max_retries", merged.MaxRetries).
		Msg("llm broker ready")

	return b, nil
}

// FromPreset は指定プロバイダーの既定設定からBrokerを作成
func FromPreset(name llm.ProviderName, apiKey, model string, overrides llm.ProviderConfig, opts ...Option) (*Broker, error) {
	cfg := llm.ProviderConfig{
		Provider: name,
		APIKey:   apiKey,
		Model:    model,
	}.Merge(overrides)
	cfg.Provider = name

	return New(cfg, opts...)
}

// Provider は解決済みのプロバイダー名を返す
func (b *Broker) Provider() llm.ProviderName {
	return b.strategy.Name()
}

// Config は実効設定のコピーを返す
func (b *Broker) Config() llm.ProviderConfig {
	return b.cfg.Merge(llm.ProviderConfig{})
}

// CallOption は呼び出しごとのリクエストパラメータを上書きする
type CallOption func(*callOptions)

type callOptions struct {
	temperature float64
	maxTokens   int
	extra       map[string]any
}

// WithTemperature はtemperatureを上書き
func WithTemperature(t float64) CallOption {
	return func(o *callOptions) { o.temperature = t }
}

// WithMaxTokens は生成トークン数の上限を上書き
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithExtra はプロバイダー固有のボディパラメータを追加
func WithExtra(params map[string]any) CallOption {
	return func(o *callOptions) { o.extra = params }
}

// ChatCompletion はメッセージを送信しプロバイダーの応答を返す
// リトライは呼び出し側から見えない。失敗時は常に*llm.Errorを返す
func (b *Broker) ChatCompletion(ctx context.Context, messages []llm.Message, opts ...CallOption) (llm.Response, error) {
	co := callOptions{temperature: b.temperature, maxTokens: b.maxTokens}
	for _, opt := range opts {
		opt(&co)
	}

	req := llm.NewRequest(b.cfg.Model, messages, co.temperature, co.maxTokens, co.extra)

	body, err := json.Marshal(b.strategy.TransformRequest(req))
	if err != nil {
		return llm.Response{}, &llm.Error{
			Kind:    llm.KindInvalidRequest,
			Message: fmt.Sprintf("failed to encode request: %v", err),
			Cause:   err,
		}
	}

	log := b.logger.With().
		Str("request_id", uuid.NewString()).
		Str("provider", string(b.strategy.Name())).
		Logger()
	ctx = log.WithContext(ctx)

	start := time.Now()
	wire := &transport.Request{Body: body}

	resp, err := b.client.Post(ctx, wire)
	if err != nil {
		llmErr := normalizeError(err, wire.Attempt)
		log.Error().
			Err(llmErr).
			Int("retries", wire.Attempt).
			Dur("elapsed", time.Since(start)).
			Msg("llm request failed")
		return llm.Response{}, llmErr
	}

	out, err := b.strategy.TransformResponse(resp.Body)
	if err != nil {
		return llm.Response{}, &llm.Error{
			Kind:       llm.KindUnknown,
			Message:    err.Error(),
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	log.Debug().
		Int("retries", wire.Attempt).
		Dur("elapsed", time.Since(start)).
		Msg("llm request completed")

	return out, nil
}

// TextCompletion は単一プロンプト(任意でsystemメッセージ付き)を送信し本文を返す
func (b *Broker) TextCompletion(ctx context.Context, prompt, systemMessage string, opts ...CallOption) (string, error) {
	messages := make([]llm.Message, 0, 2)
	if systemMessage != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemMessage})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := b.ChatCompletion(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// TestConnection は1トークンのリクエストに応答があるかを返す
func (b *Broker) TestConnection(ctx context.Context) bool {
	_, err := b.TextCompletion(ctx, "Test", "", WithMaxTokens(1))
	return err == nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
