package llm

// Role はメッセージの発話者
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message はLLMメッセージを表す
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request は1回の呼び出しで送るリクエスト
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Stream      bool
	Extra       map[string]any
}

// NewRequest はメッセージ列をコピーしてRequestを作成
func NewRequest(model string, messages []Message, temperature float64, maxTokens int, extra map[string]any) Request {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)

	var params map[string]any
	if len(extra) > 0 {
		params = make(map[string]any, len(extra))
		for k, v := range extra {
			params[k] = v
		}
	}

	return Request{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
		Extra:       params,
	}
}

// Choice は標準レスポンスの選択肢
type Choice struct {
	Index        int
	Message      Message
	FinishReason string
}

// Usage はトークン使用量
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StandardResponse はchat completions形式のレスポンス
type StandardResponse struct {
	ID      string
	Object  string
	Created int64
	Model   string
	Choices []Choice
	Usage   *Usage
}

// CustomResponse は非標準APIのレスポンス
type CustomResponse struct {
	Content  string
	Metadata map[string]any
}

// Response はStandardかCustomのどちらか一方だけを持つ
type Response struct {
	Standard *StandardResponse
	Custom   *CustomResponse
}

// Text はレスポンス本文を取り出す
func (r Response) Text() string {
	switch {
	case r.Standard != nil:
		if len(r.Standard.Choices) == 0 {
			return ""
		}
		return r.Standard.Choices[0].Message.Content
	case r.Custom != nil:
		return r.Custom.Content
	default:
		return ""
	}
}
