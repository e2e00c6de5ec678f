// Package gateway 封装对后端 REST 接口的调用：注入凭证、统一错误分类，
// 并在鉴权失效时触发回调。不做重试。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dujiao-next/storefront/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout  = 15 * time.Second
	requestIDHeader = "X-Request-ID"
	maxMessageBytes = 512
)

// CredentialSource 按路径提供访问令牌
type CredentialSource interface {
	Credential(path string) string
}

// Options 网关配置
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Credentials CredentialSource
	Logger      *zap.SugaredLogger
}

// Call 一次远端调用
type Call struct {
	Method string
	Path   string
	Body   interface{}
	// Auth 为 true 时必须携带凭证，没有凭证直接返回 Unauthorized
	Auth bool
}

// Client API 网关
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	log         *zap.SugaredLogger

	hookMu         sync.RWMutex
	onUnauthorized func()
}

// New 创建网关
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("gateway")
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient:  httpClient,
		credentials: opts.Credentials,
		log:         log,
	}
}

// OnUnauthorized 设置鉴权失效回调
func (c *Client) OnUnauthorized(fn func()) {
	c.hookMu.Lock()
	c.onUnauthorized = fn
	c.hookMu.Unlock()
}

// Do 执行调用，成功时把响应体解码到 out（out 为 nil 时丢弃响应体）
func (c *Client) Do(ctx context.Context, call Call, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := "/" + strings.TrimLeft(strings.TrimSpace(call.Path), "/")

	token := ""
	if c.credentials != nil {
		token = c.credentials.Credential(path)
	}
	if call.Auth && token == "" {
		c.log.Debugw("gateway_request_skipped", "method", method, "path", path, "reason", "no_credential")
		err := &Error{Kind: KindUnauthorized, Message: "not logged in"}
		c.fireUnauthorized()
		return err
	}

	var reader io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("gateway_request", "request_id", requestID, "method", method, "path", path,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return &Error{Kind: KindNetworkFailure, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Status: resp.StatusCode, Err: err}
	}
	c.log.Infow("gateway_request", "request_id", requestID, "method", method, "path", path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if kind, failed := Classify(resp.StatusCode); failed {
		gwErr := &Error{Kind: kind, Status: resp.StatusCode, Message: extractMessage(body)}
		if kind == KindUnauthorized && call.Auth {
			c.fireUnauthorized()
		}
		return gwErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		if out != nil {
			return &Error{Kind: KindServerError, Status: resp.StatusCode, Message: "empty response body"}
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindServerError, Status: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

func (c *Client) fireUnauthorized() {
	c.hookMu.RLock()
	fn := c.onUnauthorized
	c.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// extractMessage 读取服务端错误文案，优先 message 字段
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		for _, candidate := range []string{payload.Message, payload.Msg, payload.Error} {
			if strings.TrimSpace(candidate) != "" {
				return strings.TrimSpace(candidate)
			}
		}
		return ""
	}
	var plain string
	if err := json.Unmarshal(trimmed, &plain); err == nil {
		return strings.TrimSpace(plain)
	}
	if trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == '<' {
		return ""
	}
	if len(trimmed) > maxMessageBytes {
		trimmed = trimmed[:maxMessageBytes]
	}
	return string(trimmed)
}

// IsCanceled 调用是否因 context 取消而失败
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
