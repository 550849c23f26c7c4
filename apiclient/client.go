// Package apiclient is the HTTP client of the procurement API: bearer
// authentication, response envelope normalization, error mapping and an
// optional GET cache.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client talks to one API origin.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	cache  Cache
	logger *log.Logger
	group  singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithCache enables caching of GETs made with Cached().
func WithCache(cache Cache) Option { return func(c *Client) { c.cache = cache } }

func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// New returns a client for baseURL, e.g. "https://api.example.id/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: StaticToken(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	params url.Values
	cached bool
	noAuth bool
}

// RequestOption tunes a single call.
type RequestOption func(*request)

// Params sets the query string of a GET.
func Params(v url.Values) RequestOption { return func(r *request) { r.params = v } }

// Cached serves the GET from the cache when possible and stores the result.
func Cached() RequestOption { return func(r *request) { r.cached = true } }

// NoAuth sends the request without a bearer token.
func NoAuth() RequestOption { return func(r *request) { r.noAuth = true } }

// Get fetches path and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	req := buildRequest(opts)
	token, err := c.token(req, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if !req.cached || c.cache == nil {
		return c.fetch(ctx, path, req.params, token)
	}

	key := CacheKey(path, req.params)
	if body, ok := c.cache.Get(ctx, key); ok {
		return body, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		body, err := c.fetch(ctx, path, req.params, token)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logf("cache set %s: %v", key, err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// GetJSON is Get followed by json.Unmarshal into dst.
func (c *Client) GetJSON(ctx context.Context, path string, dst any, opts ...RequestOption) error {
	body, err := c.Get(ctx, path, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Kind: ErrInvalidResponse, Method: http.MethodGet, Path: path, Err: err}
	}
	return nil
}

// Post sends body as JSON, or as multipart form data when it is a map
// holding File values, and returns the decoded envelope. A non-success
// envelope yields ErrRejected.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (Envelope, error) {
	req := buildRequest(opts)
	token, err := c.token(req, http.MethodPost, path)
	if err != nil {
		return Envelope{}, err
	}
	var (
		reader      io.Reader
		contentType string
	)
	if fields, ok := asFields(body); ok && hasFile(fields) {
		reader, contentType, err = encodeMultipart(fields)
	} else {
		var b []byte
		b, err = json.Marshal(body)
		reader, contentType = bytes.NewReader(b), "application/json"
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("apiclient: encode %s: %w", path, err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), reader)
	if err != nil {
		return Envelope{}, err
	}
	hreq.Header.Set("Content-Type", contentType)
	status, respBody, err := c.do(hreq, token)
	if err != nil {
		return Envelope{}, err
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return Envelope{}, &Error{Kind: ErrInvalidResponse, Method: http.MethodPost, Path: path, Status: status, Err: err}
	}
	if !env.OK() {
		return env, &Error{Kind: ErrRejected, Method: http.MethodPost, Path: path, Status: status,
			Message: env.Message, Fields: env.FieldErrors()}
	}
	return env, nil
}

// ClearCache drops key and all its query variants; "" drops everything.
func (c *Client) ClearCache(ctx context.Context, key string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, strings.TrimPrefix(key, "/")); err != nil {
		c.logf("cache invalidate %q: %v", key, err)
	}
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, token string) (json.RawMessage, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, params), nil)
	if err != nil {
		return nil, err
	}
	_, body, err := c.do(hreq, token)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: ErrInvalidResponse, Method: http.MethodGet, Path: path}
	}
	return body, nil
}

// do executes the request and maps non-2xx statuses to errors.
func (c *Client) do(req *http.Request, token string) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	path := strings.TrimPrefix(req.URL.Path, c.base.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			err = ctxErr
		}
		c.logf("%s %s: %v", req.Method, path, err)
		return 0, nil, &Error{Kind: ErrTransport, Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Kind: ErrTransport, Method: req.Method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if kind := kindForStatus(resp.StatusCode); kind != nil {
		e := &Error{Kind: kind, Method: req.Method, Path: path, Status: resp.StatusCode}
		var env Envelope
		if json.Unmarshal(body, &env) == nil {
			e.Message, e.Fields = env.Message, env.FieldErrors()
		}
		c.logf("%s %s: HTTP %d %s", req.Method, path, resp.StatusCode, e.Message)
		return resp.StatusCode, body, e
	}
	return resp.StatusCode, body, nil
}

func (c *Client) token(req request, method, path string) (string, error) {
	if req.noAuth {
		return "", nil
	}
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("apiclient: read token: %w", err)
	}
	if token == "" {
		return "", &Error{Kind: ErrNoToken, Method: method, Path: path}
	}
	return token, nil
}

func (c *Client) url(path string, params url.Values) string {
	u := c.base.JoinPath(strings.TrimPrefix(path, "/"))
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func buildRequest(opts []RequestOption) request {
	var r request
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Session is the result of a successful Login.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      map[string]any `json:"user"`
}

// Login authenticates and, when the token source is a TokenStore, stores
// the new token there.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	env, err := c.Post(ctx, "auth/login", map[string]string{"username": username, "password": password}, NoAuth())
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(env.Data, &s); err != nil || s.Token == "" {
		return Session{}, &Error{Kind: ErrInvalidResponse, Method: http.MethodPost, Path: "auth/login", Err: err}
	}
	if store, ok := c.tokens.(TokenStore); ok {
		if err := store.SetToken(s.Token); err != nil {
			return s, fmt.Errorf("apiclient: store token: %w", err)
		}
	}
	return s, nil
}

// Logout forgets the stored token and the cache.
func (c *Client) Logout(ctx context.Context) error {
	c.ClearCache(ctx, "")
	if store, ok := c.tokens.(TokenStore); ok {
		return store.SetToken("")
	}
	return errors.New("apiclient: token source is read-only")
}
