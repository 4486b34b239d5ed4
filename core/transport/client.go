package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bitsight-connector/core/status"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "bitsight-connector"

// ProxyMap maps a URL scheme to the proxy used for it. It is nil when no
// proxy is configured.
type ProxyMap map[string]string

// Redacted returns a copy with proxy passwords masked, safe for logging.
func (p ProxyMap) Redacted() ProxyMap {
	if p == nil {
		return nil
	}
	out := make(ProxyMap, len(p))
	for scheme, raw := range p {
		u, err := url.Parse(raw)
		if err != nil {
			out[scheme] = "<invalid>"
			continue
		}
		out[scheme] = u.Redacted()
	}
	return out
}

// Client is an authenticated BitSight API client.
type Client struct {
	baseURL  *url.URL
	apiKey   string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the logger used for request level debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// Build validates cfg and returns a ready client plus the proxy map in use.
// Validation failures are returned before any network activity.
func Build(cfg Config, opts ...Option) (*Client, ProxyMap, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	proxyURL, err := parseProxy(cfg.Proxy)
	if err != nil {
		return nil, nil, err
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, nil, status.Newf(status.ConfigInvalid, "timeout must be positive, got %d", cfg.TimeoutSeconds)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	// Custom transport with strict timeouts
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifySSL, //nolint:gosec // operator controlled
		},
	}

	var proxies ProxyMap
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
		proxies = ProxyMap{"http": proxyURL.String(), "https": proxyURL.String()}
	}

	c := &Client{
		baseURL:  base,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		pageSize: pageSize,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, proxies, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PageSize returns the limit used for paginated requests.
func (c *Client) PageSize() int {
	return c.pageSize
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return nil, status.New(status.ConfigInvalid, "base URL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "base URL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, status.Newf(status.ConfigInvalid, "base URL must start with http:// or https://, got %q", raw)
	}
	if u.Host == "" {
		return nil, status.New(status.ConfigInvalid, "base URL is missing a host")
	}
	return u, nil
}

func parseProxy(cfg ProxyConfig) (*url.URL, error) {
	hasUser := cfg.Username != ""
	hasPass := cfg.Password != ""

	if cfg.URL == "" {
		if hasUser || hasPass {
			return nil, status.New(status.ConfigConflict, "proxy username/password provided but proxy URL is missing")
		}
		return nil, nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "proxy URL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, status.New(status.ConfigInvalid, "proxy URL must start with http:// or https://")
	}
	if u.Hostname() == "" {
		return nil, status.New(status.ConfigInvalid, "proxy URL is missing a host")
	}
	if hasUser != hasPass {
		return nil, status.New(status.ConfigConflict, "proxy username and password must be provided together")
	}
	if hasUser {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u, nil
}
