package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/Nyukimin/playwright-ai-agent/internal/domain/llm"
	"github.com/Nyukimin/playwright-ai-agent/internal/infrastructure/llm/transport"
)

// RetryDelays はバックオフ間隔。範囲外の回数は最後の値を使う
var RetryDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// RetryDelay はattempt回目(0始まり)のリトライ前の待機時間を返す
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(RetryDelays) {
		return RetryDelays[len(RetryDelays)-1]
	}
	return RetryDelays[attempt]
}

func (b *Broker) retryInterceptor(ctx context.Context, req *transport.Request, err error) bool {
	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) || !llm.IsRetryableStatus(statusErr.StatusCode) {
		return false
	}
	if req.Attempt >= b.cfg.MaxRetries {
		return false
	}

	delay := RetryDelay(req.Attempt)
	zerolog.Ctx(ctx).Warn().
		Int("status", statusErr.StatusCode).
		Int("retry", req.Attempt+1).
		Int("max_retries", b.cfg.MaxRetries).
		Dur("delay", delay).
		Msg("retrying llm request")

	if err := b.sleep(ctx, delay); err != nil {
		return false
	}

	req.Attempt++
	return true
}

// normalizeError はトランスポートの失敗を1つの*llm.Errorに変換
func normalizeError(err error, retries int) *llm.Error {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode

		msg := providerMessage(statusErr.Body)
		if msg == "" {
			msg = http.StatusText(code)
		}
		if retries > 0 {
			msg = fmt.Sprintf("%s (gave up after %d retries)", msg, retries)
		}

		return &llm.Error{
			Kind:       llm.KindForStatus(code),
			Message:    msg,
			StatusCode: code,
			Retryable:  llm.IsRetryableStatus(code),
			Cause:      err,
		}
	}

	return &llm.Error{
		Kind:      llm.KindNetwork,
		Message:   err.Error(),
		Retryable: isTimeoutError(err),
		Cause:     err,
	}
}

// providerMessage は各プロバイダーのエラー形式からメッセージを取り出す
func providerMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"error.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}
