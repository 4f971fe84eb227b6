package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-rag-admin/internal/metrics"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 30 * time.Second

// Middleware observes every wire attempt. BeforeRequest may modify the outgoing request;
// OnResponse receives the outcome of the previous middleware and returns its own.
// Non-2xx responses arrive as an *HTTPError alongside the response.
type Middleware interface {
	BeforeRequest(ctx context.Context, req *Request, httpReq *http.Request) error
	OnResponse(ctx context.Context, req *Request, resp *http.Response, err error) (*http.Response, error)
}

// Client sends requests to the backend through an ordered middleware pipeline.
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
	middleware []Middleware
	metrics    *metrics.Recorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		header:     http.Header{},
	}
	c.header.Set("Accept", "application/json")
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Use appends middleware to the pipeline. It must not be called concurrently with Do.
func (c *Client) Use(mw ...Middleware) {
	c.middleware = append(c.middleware, mw...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and runs the response through the middleware. The caller owns the
// returned response body. Any non-2xx outcome is returned as an *HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	req = req.clone()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, mw := range c.middleware {
		if err := mw.BeforeRequest(ctx, req, httpReq); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(req, httpReq)
	for _, mw := range c.middleware {
		resp, err = mw.OnResponse(ctx, req, resp, err)
	}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	httpReq.Header.Set("X-Request-ID", req.ID)
	return httpReq, nil
}

func (c *Client) send(req *Request, httpReq *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Request(req.Method, 0)
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("Backend request failed")
		return nil, fmt.Errorf("send %s %s: %w", req.Method, req.Path, err)
	}
	c.metrics.Request(req.Method, resp.StatusCode)
	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Str("attempt", req.Attempt.String()).
		Str("request_id", req.ID).
		Dur("took", time.Since(started)).
		Msg("Backend request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read error response: %w", readErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(payload))
	return resp, &HTTPError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		Path:       req.Path,
		Body:       payload,
		Attempt:    req.Attempt,
	}
}

// DoJSON sends req and decodes a JSON response into out. A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: path, Header: header, Body: body}, out)
}

func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: path, Header: header, Body: []byte(form.Encode())}, out)
}

// PostMultipart uploads content as the form file field plus any extra text fields.
// The whole body is buffered so the request can be retried.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, content io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", w.FormDataContentType())
	return c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: path, Header: header, Body: buf.Bytes()}, out)
}
