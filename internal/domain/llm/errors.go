package llm

import (
	"errors"
	"fmt"
)

// ErrorKind はエラー分類
type ErrorKind string

const (
	KindNetwork        ErrorKind = "network"
	KindAuth           ErrorKind = "auth"
	KindRateLimit      ErrorKind = "rate-limit"
	KindInvalidRequest ErrorKind = "invalid-request"
	KindServer         ErrorKind = "server"
	KindUnknown        ErrorKind = "unknown"
)

// RetryableStatusCodes はリトライ対象のHTTPステータス
var RetryableStatusCodes = []int{408, 429, 500, 502, 503, 504}

// IsRetryableStatus はステータスがリトライ対象かを判定
func IsRetryableStatus(code int) bool {
	for _, c := range RetryableStatusCodes {
		if c == code {
			return true
		}
	}
	return false
}

// KindForStatus はHTTPステータスをエラー分類に変換
func KindForStatus(code int) ErrorKind {
	switch {
	case code == 400:
		return KindInvalidRequest
	case code == 401 || code == 403:
		return KindAuth
	case code == 429:
		return KindRateLimit
	case code >= 500 && code <= 599:
		return KindServer
	default:
		return KindUnknown
	}
}

// Error は正規化されたLLM呼び出しエラー
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // ステータスが得られなかった場合は0
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind はerrが指定分類の*Errorかを判定
func IsKind(err error, kind ErrorKind) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Kind == kind
}

// ConfigError はネットワーク呼び出し前に検出される設定不備
type ConfigError struct {
	Provider ProviderName
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is required"
	}
	if e.Provider == "" {
		return fmt.Sprintf("llm config: %s %s", e.Field, reason)
	}
	return fmt.Sprintf("llm config: %s: %s %s", e.Provider, e.Field, reason)
}
