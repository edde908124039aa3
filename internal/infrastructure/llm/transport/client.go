package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

// Request は送信するボディと再送回数
type Request struct {
	Body    []byte
	Attempt int // インターセプターが再送ごとに進める
}

// Response は2xxレスポンス
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError は2xx以外のHTTPレスポンス
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// Interceptor は失敗レスポンスを受け取り、trueを返すと同じRequestを再送する
type Interceptor func(ctx context.Context, req *Request, err error) bool

// Client は単一エンドポイントへPOSTするHTTPクライアント
type Client struct {
	http         *resty.Client
	endpoint     string
	interceptors []Interceptor
}

// Option はClientの設定
type Option func(*options)

type options struct {
	tokens oauth2.TokenSource
}

// WithTokenSource はAuthorizationヘッダーをoauth2トランスポートで付与する
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) {
		o.tokens = ts
	}
}

// New は新しいClientを作成
func New(endpoint string, timeout time.Duration, headers map[string]string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rc := resty.New()
	if o.tokens != nil {
		rc = resty.NewWithClient(oauth2.NewClient(context.Background(), o.tokens))
	}
	rc.SetTimeout(timeout).
		SetHeaders(headers)

	return &Client{
		http:     rc,
		endpoint: endpoint,
	}
}

// Use はレスポンスインターセプターを登録
func (c *Client) Use(ic Interceptor) {
	c.interceptors = append(c.interceptors, ic)
}

// Post はreq.Bodyを送信し、インターセプターが再送を指示する限り繰り返す
func (c *Client) Post(ctx context.Context, req *Request) (*Response, error) {
	for {
		resp, err := c.send(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !c.intercept(ctx, req, err) {
			return nil, err
		}
	}
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	r, err := c.http.R().
		SetContext(ctx).
		SetBody(req.Body).
		Post(c.endpoint)
	if err != nil {
		return nil, err
	}

	if !r.IsSuccess() {
		return nil, &StatusError{StatusCode: r.StatusCode(), Body: r.Body()}
	}

	return &Response{StatusCode: r.StatusCode(), Body: r.Body()}, nil
}

func (c *Client) intercept(ctx context.Context, req *Request, err error) bool {
	for _, ic := range c.interceptors {
		if ic(ctx, req, err) {
			return true
		}
	}
	return false
}
