package openai

import (
	"encoding/json"
	"fmt"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	sdk "github.com/openai/openai-go/v3"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.openai.com/v1/chat/completions"

// Strategy はOpenAI chat completions APIのStrategy実装
type Strategy struct{}

// New は新しいStrategyを作成
func New() *Strategy {
	return &Strategy{}
}

// Name はプロバイダー名を返す
func (s *Strategy) Name() llm.ProviderName {
	return llm.ProviderOpenAI
}

// DefaultConfig はOpenAIの既定設定を返す
func (s *Strategy) DefaultConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:   llm.ProviderOpenAI,
		BaseURL:    defaultBaseURL,
		AuthMethod: llm.AuthBearer,
	}
}

// TransformRequest はフラットなchat completionsボディを組み立てる
func (s *Strategy) TransformRequest(req llm.Request) map[string]any {
	return FlatBody(req)
}

// TransformResponse は標準形式のレスポンスに変換
func (s *Strategy) TransformResponse(body []byte) (llm.Response, error) {
	return DecodeCompletion(body)
}

// AuthHeaders はBearer認証ヘッダーを返す
func (s *Strategy) AuthHeaders(apiKey string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return headers
}

// TokenSource はBearerトークンの供給元を返す。キーがなければnil
// 設定された場合、Authorizationヘッダーはoauth2トランスポートが付与する
func (s *Strategy) TokenSource(apiKey string) oauth2.TokenSource {
	if apiKey == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
}

// ValidateConfig は必須項目を検証
func (s *Strategy) ValidateConfig(cfg llm.ProviderConfig) error {
	return llm.ValidateRequired(s.Name(), cfg)
}

// FlatBody はmodel, messages, temperature, max_tokens, streamに追加パラメータを重ねたボディを返す
func FlatBody(req llm.Request) map[string]any {
	body := map[string]any{
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      req.Stream,
	}
	if req.Model != "" {
		body["model"] = req.Model
	}
	for k, v := range req.Extra {
		body[k] = v
	}
	return body
}

// DecodeCompletion はchat completionsレスポンスを標準形式にデコード
func DecodeCompletion(body []byte) (llm.Response, error) {
	var completion sdk.ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return llm.Response{}, fmt.Errorf("failed to decode chat completion: %w", err)
	}

	choices := make([]llm.Choice, 0, len(completion.Choices))
	for _, c := range completion.Choices {
		role := llm.Role(c.Message.Role)
		if role == "" {
			role = llm.RoleAssistant
		}
		choices = append(choices, llm.Choice{
			Index:        int(c.Index),
			Message:      llm.Message{Role: role, Content: c.Message.Content},
			FinishReason: string(c.FinishReason),
		})
	}

	std := &llm.StandardResponse{
		ID:      completion.ID,
		Object:  string(completion.Object),
		Created: completion.Created,
		Model:   completion.Model,
		Choices: choices,
	}

	u := completion.Usage
	if u.TotalTokens > 0 || u.PromptTokens > 0 || u.CompletionTokens > 0 {
		std.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokens),
			CompletionTokens: int(u.CompletionTokens),
			TotalTokens:      int(u.TotalTokens),
		}
	}

	return llm.Response{Standard: std}, nil
}
