package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bullpost/bullpost-client/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotAuthenticated is returned without a network call when an
	// operation needs a bearer token and none is held.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized matches backend 401/403 answers via errors.Is.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupported is returned for operations a channel does not offer.
	ErrUnsupported = errors.New("operation not supported for this channel")
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.StatusCode)
}

// Is lets callers test errors.Is(err, ErrUnauthorized)
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Client talks to the BullPost REST backend
type Client struct {
	baseURL string
	client  *resty.Client
	jar     http.CookieJar

	mu    sync.RWMutex
	token string
}

// NewClient creates a backend client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		jar:     jar,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetCookieJar(jar).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "BullPost-Client/1.0"),
	}
}

// BaseURL returns the backend root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken installs the bearer token used by authenticated calls
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the bearer token currently in use
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, auth bool) (*resty.Request, error) {
	req := c.client.R().SetContext(ctx)
	if auth {
		token := c.Token()
		if token == "" {
			return nil, ErrNotAuthenticated
		}
		req.SetAuthToken(token)
	}
	return req, nil
}

// call sends a JSON request and decodes the JSON answer into out
func (c *Client) call(ctx context.Context, op, method, path string, auth bool, body, out interface{}) error {
	req, err := c.newRequest(ctx, auth)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.execute(op, method, path, req, out)
}

func (c *Client) execute(op, method, path string, req *resty.Request, out interface{}) error {
	start := time.Now()
	logrus.Debugf("Backend request %s %s (%s)", method, path, op)

	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.ObserveBackendRequest(op, "error", start)
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	metrics.ObserveBackendRequest(op, strconv.Itoa(resp.StatusCode()), start)

	if !resp.IsSuccess() {
		logrus.Debugf("Backend %s returned status %d: %s", op, resp.StatusCode(), string(resp.Body()))
		return &APIError{
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Message:    extractMessage(resp.Body()),
		}
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}

// extractMessage pulls the human readable message out of an error body
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

// checkStatus rejects 2xx answers whose body carries a failing status field
func checkStatus(op string, status int, message string) error {
	if status == 0 || (status >= 200 && status < 300) {
		return nil
	}
	return &APIError{Operation: op, StatusCode: status, Message: message}
}

// ClearCookie expires a named cookie for every path and domain variant the
// backend may have set it under. Failures are ignored.
func (c *Client) ClearCookie(name string) {
	u, err := url.Parse(c.baseURL)
	if err != nil || name == "" {
		return
	}

	host := u.Hostname()
	domains := []string{"", host, "." + host}
	if parts := strings.Split(host, "."); len(parts) > 2 {
		parent := strings.Join(parts[len(parts)-2:], ".")
		domains = append(domains, parent, "."+parent)
	}

	paths := []string{"/"}
	if p := strings.TrimRight(u.Path, "/"); p != "" {
		paths = append(paths, p, p+"/")
	}

	for _, domain := range domains {
		for _, path := range paths {
			c.jar.SetCookies(u, []*http.Cookie{{
				Name:    name,
				Value:   "",
				Path:    path,
				Domain:  domain,
				MaxAge:  -1,
				Expires: time.Unix(0, 0),
			}})
		}
	}
	logrus.Debugf("Cleared cookie %s for %s", name, host)
}

// Cookies returns the cookies the jar would send to the backend
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	return c.jar.Cookies(u)
}
