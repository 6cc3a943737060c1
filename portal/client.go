package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"employee-portal/core"
)

// Pages the guard and the header send users to.
const (
	EntryPage   = "index.html"
	LoginTarget = "index.html#login"
)

// APIError is a non-2xx gateway response. Error returns the raw body, or the
// status code when the body is empty.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return strconv.Itoa(e.StatusCode)
}

// NetworkError is a request that never produced an HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Response is a successful gateway response. JSON is set when the server
// declared a JSON content type; Text holds the body otherwise.
type Response struct {
	StatusCode  int
	ContentType string
	JSON        any
	Text        string
	raw         []byte
}

// Decode unmarshals the raw body into v.
func (r Response) Decode(v any) error {
	return json.Unmarshal(r.raw, v)
}

// Client calls the gateway API on behalf of the stored session.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetToken reads the stored session. Malformed data reads as logged out.
func (c *Client) GetToken(ctx context.Context) Lookup {
	return c.store.Get(ctx)
}

// SetTokens overwrites the stored bundle.
func (c *Client) SetTokens(ctx context.Context, b core.TokenBundle) error {
	return c.store.Set(ctx, b)
}

// ClearTokens removes the stored bundle.
func (c *Client) ClearTokens(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Call sends method+path to the gateway. body may be nil, []byte, string or
// any JSON-encodable value.
func (c *Client) Call(ctx context.Context, method, path string, body any) (Response, error) {
	reader, err := requestBody(body)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b, ok := c.store.Get(ctx).Token(); ok && b.IDToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.IDToken)
	}

	res, data, err := c.do(req)
	if err != nil {
		return Response{}, err
	}
	out := Response{StatusCode: res.StatusCode, ContentType: res.Header.Get("Content-Type"), raw: data}
	if strings.Contains(out.ContentType, "application/json") {
		if err := json.Unmarshal(data, &out.JSON); err != nil {
			return Response{}, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	} else {
		out.Text = string(data)
	}
	return out, nil
}

// Login posts credentials to /auth/login and persists the returned bundle.
// It bypasses Call since no session exists yet. Failures carry the raw body.
func (c *Client) Login(ctx context.Context, username, password string) (core.TokenBundle, error) {
	payload, err := json.Marshal(core.Credential{Username: username, Password: password})
	if err != nil {
		return core.TokenBundle{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return core.TokenBundle{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	_, data, err := c.do(req)
	if err != nil {
		return core.TokenBundle{}, err
	}
	var bundle core.TokenBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return core.TokenBundle{}, fmt.Errorf("decode login response: %w", err)
	}
	if bundle.IDToken == "" {
		return core.TokenBundle{}, errors.New("login response has no idToken")
	}
	if err := c.store.Set(ctx, bundle); err != nil {
		return core.TokenBundle{}, fmt.Errorf("store session: %w", err)
	}
	return bundle, nil
}

// RequireAuth is a guard: without a usable ID token it returns the entry
// page to redirect to and false. A JWT whose exp has passed is not usable;
// tokens that do not parse as JWTs are taken at face value.
func (c *Client) RequireAuth(ctx context.Context) (string, bool) {
	b, ok := c.store.Get(ctx).Token()
	if !ok || b.IDToken == "" || c.expired(b.IDToken) {
		return EntryPage, false
	}
	return "", true
}

func (c *Client) expired(raw string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.now().Before(exp.Time)
}

// do executes req and reads the body. Transport failures become
// *NetworkError and non-2xx statuses *APIError.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, nil, &APIError{StatusCode: res.StatusCode, Body: string(data)}
	}
	return res, data, nil
}

func requestBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}
