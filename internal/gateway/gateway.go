// Package gateway is the single HTTP pipeline every backend call goes through.
// It attaches the bearer token of the current session right before sending.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/gateway/config"
	"github.com/iurnickita/scpclient/internal/logger"
)

// TokenSource yields the bearer token of the current session, empty when
// there is none.
type TokenSource interface {
	Token() string
}

// Invalidator is implemented by token sources that can drop their session
// after the backend rejected it.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

var ErrRequestFailed = errors.New("request failed")

// RequestError is a non-success HTTP answer.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Detail returns the backend's explanation carried by err, or "".
func Detail(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Detail
	}
	return ""
}

// Request describes one backend call. Form and Body are mutually exclusive.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Form   map[string]string
	Body   interface{}
}

type Gateway struct {
	cfg    config.Config
	client *resty.Client
	tokens TokenSource
	zaplog *zap.Logger
}

// New builds a gateway. A nil tokens gives a public gateway that never
// authenticates.
func New(cfg config.Config, tokens TokenSource, zaplog *zap.Logger) *Gateway {
	g := &Gateway{cfg: cfg, tokens: tokens, zaplog: zaplog}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	// порядок важен: логер должен видеть заголовок авторизации
	client.OnBeforeRequest(g.authorize)
	logger.RequestLogHooks(client, zaplog)

	g.client = client
	return g
}

func (g *Gateway) authorize(_ *resty.Client, r *resty.Request) error {
	r.SetHeader("X-Request-ID", uuid.NewString())
	if g.tokens == nil {
		return nil
	}
	// токен читается непосредственно перед отправкой
	if tok := g.tokens.Token(); tok != "" {
		r.SetHeader("Authorization", "Bearer "+tok)
	}
	return nil
}

func (g *Gateway) Do(ctx context.Context, request Request, result interface{}) error {
	req := g.client.R().SetContext(ctx)
	if len(request.Query) > 0 {
		req.SetQueryParams(request.Query)
	}
	switch {
	case request.Form != nil:
		req.SetFormData(request.Form)
	case request.Body != nil:
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(request.Body)
	}

	resp, err := req.Execute(request.Method, request.Path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, request.Method, request.Path, err)
	}

	if !resp.IsSuccess() {
		reqErr := &RequestError{
			Method:     request.Method,
			Path:       request.Path,
			StatusCode: resp.StatusCode(),
			Detail:     detail(resp.Body()),
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			g.unauthorized(ctx)
		}
		return reqErr
	}

	if result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %w", ErrRequestFailed, request.Method, request.Path, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, path string, result interface{}) error {
	return g.Do(ctx, Request{Method: http.MethodGet, Path: path}, result)
}

func (g *Gateway) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return g.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

func (g *Gateway) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return g.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, result)
}

func (g *Gateway) PostForm(ctx context.Context, path string, form map[string]string, result interface{}) error {
	if form == nil {
		form = map[string]string{}
	}
	return g.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form}, result)
}

func (g *Gateway) unauthorized(ctx context.Context) {
	if !g.cfg.ClearSessionOnUnauthorized || g.tokens == nil {
		return
	}
	inv, ok := g.tokens.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		g.zaplog.Warn("session invalidation failed", zap.Error(err))
	}
}

// detail достает поле detail из ответа бэкенда; строка, либо JSON как есть
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
