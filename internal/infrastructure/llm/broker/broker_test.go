package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
)

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"m",
	"choices":[{"index":0,"message":{"role":"assistant","content":"done"},"finish_reason":"stop"}]}`

// recordingSleep はリトライ待機時間を記録する
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func localConfig(url string) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: llm.ProviderLocal,
		BaseURL:  url,
		Model:    "test-model",
	}
}

func TestRetryDelay_Clamped(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, d := range want {
		assert.Equal(t, d, RetryDelay(i), "attempt %d", i)
	}
}

func TestChatCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "local provider must not send credentials")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Equal(t, 0.6, body["temperature"])
		assert.Equal(t, false, body["stream"])

		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	b, err := New(localConfig(server.URL))
	require.NoError(t, err)

	resp, err := b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	require.NotNil(t, resp.Standard)
	assert.Equal(t, "done", resp.Text())
}

func TestChatCompletion_CallOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 0.1, body["temperature"])
		assert.Equal(t, float64(42), body["max_tokens"])
		assert.Equal(t, "json_object", body["response_format"])
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	b, err := New(localConfig(server.URL))
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		WithTemperature(0.1), WithMaxTokens(42), WithExtra(map[string]any{"response_format": "json_object"}))
	require.NoError(t, err)
}

func TestChatCompletion_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	rec := &recordingSleep{}
	b, err := New(localConfig(server.URL), WithSleep(rec.sleep))
	require.NoError(t, err)

	text, err := b.TextCompletion(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
}

func TestChatCompletion_RetryExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"Rate limit exceeded"}}`))
	}))
	defer server.Close()

	rec := &recordingSleep{}
	b, err := New(localConfig(server.URL), WithSleep(rec.sleep))
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.KindRateLimit, llmErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, llmErr.StatusCode)
	assert.True(t, llmErr.Retryable)
	assert.Contains(t, llmErr.Message, "Rate limit exceeded")
	assert.Contains(t, llmErr.Message, "3 retries")

	// 初回 + maxRetries(3)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestChatCompletion_DelaysClampBeyondSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := localConfig(server.URL)
	cfg.MaxRetries = 6

	rec := &recordingSleep{}
	b, err := New(cfg, WithSleep(rec.sleep))
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.True(t, llm.IsKind(err, llm.KindServer))
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second,
	}, rec.delays)
}

func TestChatCompletion_NonRetryableStatuses(t *testing.T) {
	tests := []struct {
		status int
		kind   llm.ErrorKind
	}{
		{http.StatusBadRequest, llm.KindInvalidRequest},
		{http.StatusUnauthorized, llm.KindAuth},
		{http.StatusForbidden, llm.KindAuth},
		{http.StatusNotFound, llm.KindUnknown},
		{http.StatusNotImplemented, llm.KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			cfg := localConfig(server.URL)
			cfg.MaxRetries = 10

			rec := &recordingSleep{}
			b, err := New(cfg, WithSleep(rec.sleep))
			require.NoError(t, err)

			_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

			var llmErr *llm.Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.kind, llmErr.Kind)
			assert.Equal(t, tt.status, llmErr.StatusCode)
			assert.False(t, llmErr.Retryable)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
			assert.Empty(t, rec.delays)
		})
	}
}

func TestChatCompletion_RetriesDisabled(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := localConfig(server.URL)
	cfg.MaxRetries = -1

	b, err := New(cfg, WithSleep((&recordingSleep{}).sleep))
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.True(t, llm.IsKind(err, llm.KindServer))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestChatCompletion_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &recordingSleep{}
	b, err := New(localConfig(url), WithSleep(rec.sleep))
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.KindNetwork, llmErr.Kind)
	assert.Zero(t, llmErr.StatusCode)
	assert.Empty(t, rec.delays, "failures without a status are not retried")
}

func TestChatCompletion_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := localConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond

	b, err := New(cfg)
	require.NoError(t, err)

	_, err = b.ChatCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.KindNetwork, llmErr.Kind)
	assert.True(t, llmErr.Retryable)
}

func TestChatCompletion_AnthropicWireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "You are a helpful assistant", body["system"])

		messages := body["messages"].([]interface{})
		require.Len(t, messages, 1)
		assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])

		w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"System prompt applied"}]}`))
	}))
	defer server.Close()

	b, err := New(llm.ProviderConfig{
		Provider: llm.ProviderAnthropic,
		BaseURL:  server.URL,
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "test-api-key",
	})
	require.NoError(t, err)

	resp, err := b.ChatCompletion(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a helpful assistant"},
		{Role: llm.RoleUser, Content: "テスト"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Custom)
	assert.Equal(t, "System prompt applied", resp.Text())
}

func TestChatCompletion_OpenAIBearerAndCustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		assert.Len(t, r.Header.Values("Authorization"), 1)
		assert.Equal(t, "org-1", r.Header.Get("OpenAI-Organization"))
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	b, err := New(llm.ProviderConfig{
		Provider: llm.ProviderOpenAI,
		BaseURL:  server.URL,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test-key",
		Headers:  map[string]string{"OpenAI-Organization": "org-1"},
	})
	require.NoError(t, err)

	_, err = b.TextCompletion(context.Background(), "hi", "be brief")
	require.NoError(t, err)
}

func TestNew_AuthNoneDropsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	b, err := New(llm.ProviderConfig{
		Provider:   llm.ProviderOpenAI,
		BaseURL:    server.URL,
		Model:      "gpt-4o-mini",
		APIKey:     "sk-should-not-be-sent",
		AuthMethod: llm.AuthNone,
	})
	require.NoError(t, err)

	_, err = b.TextCompletion(context.Background(), "hi", "")
	require.NoError(t, err)
}

func TestNew_ConfigErrorBeforeNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := New(llm.ProviderConfig{
		Provider: llm.ProviderAnthropic,
		BaseURL:  server.URL,
		Model:    "claude-sonnet-4-20250514",
	})

	var cfgErr *llm.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "apiKey", cfgErr.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestNew_DetectsProviderFromURL(t *testing.T) {
	b, err := New(llm.ProviderConfig{
		BaseURL: "https://api.anthropic.com/v1/messages",
		Model:   "claude-sonnet-4-20250514",
		APIKey:  "test-api-key",
	})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, b.Provider())

	b, err = New(llm.ProviderConfig{BaseURL: "http://127.0.0.1:1234/v1/chat/completions", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderLocal, b.Provider())
}

func TestFromPreset(t *testing.T) {
	b, err := FromPreset(llm.ProviderOpenAI, "sk-test-key", "gpt-4o-mini", llm.ProviderConfig{MaxRetries: 5})
	require.NoError(t, err)

	cfg := b.Config()
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.BaseURL)
	assert.Equal(t, llm.AuthBearer, cfg.AuthMethod)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestTestConnection(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["max_tokens"])
		w.Write([]byte(completionBody))
	}))
	defer ok.Close()

	b, err := New(localConfig(ok.URL))
	require.NoError(t, err)
	assert.True(t, b.TestConnection(context.Background()))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer failing.Close()

	b, err = New(localConfig(failing.URL))
	require.NoError(t, err)
	assert.False(t, b.TestConnection(context.Background()))
}
