package transport

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bitsight-connector/core/logger"
	"bitsight-connector/core/status"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ProbePath is the lightweight endpoint used to validate connectivity.
const ProbePath = "/ratings/v1/current-ratings"

// ValidateConnectivity issues one authenticated probe request and returns
// a classified error when the API cannot be reached or rejects the key.
func (c *Client) ValidateConnectivity(ctx context.Context) error {
	if c.apiKey == "" {
		return status.New(status.AuthAPIKeyMissing, "API key missing")
	}

	params := url.Values{}
	params.Set("limit", "1")
	params.Set("offset", "0")

	c.logger.Info("Validating BitSight API connectivity", zap.String(logger.FieldURL, c.resolve(ProbePath).String()))

	_, err := c.GetJSON(ctx, ProbePath, params)
	return err
}

// Get performs one GET request and decodes a JSON object body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	body, err := c.GetJSON(ctx, path, params)
	if err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, status.Newf(status.APISchemaChanged, "expected JSON object from %s, got %T", path, body)
	}
	return obj, nil
}

// GetJSON performs one GET request and decodes any JSON body. Numbers are
// kept as json.Number so that hashing sees them exactly as sent.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values) (any, error) {
	u := c.resolve(path)
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	return c.do(ctx, u)
}

// Paginate walks a limit/offset collection, calling fn once per page with
// the page's results. It follows links.next and stops when the link is
// absent or a page is shorter than the limit.
func (c *Client) Paginate(ctx context.Context, path string, params url.Values, fn func(page []any) error) error {
	limit := c.pageSize
	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	q.Set("limit", strconv.Itoa(limit))
	if q.Get("offset") == "" {
		q.Set("offset", "0")
	}

	next := c.resolve(path)
	next.RawQuery = q.Encode()
	visited := map[string]struct{}{}

	for {
		if _, seen := visited[next.String()]; seen {
			return status.Newf(status.APIUnexpectedResponse, "pagination loop at %s", next.Redacted())
		}
		visited[next.String()] = struct{}{}

		body, err := c.do(ctx, next)
		if err != nil {
			return err
		}
		obj, ok := body.(map[string]any)
		if !ok {
			return status.Newf(status.APISchemaChanged, "expected paginated object from %s, got %T", path, body)
		}
		results, ok := obj["results"].([]any)
		if !ok {
			return status.Newf(status.APISchemaChanged, "response from %s has no results array", path)
		}

		if err := fn(results); err != nil {
			return err
		}

		link := nextLink(obj)
		if link == "" || len(results) < limit {
			return nil
		}
		ref, err := url.Parse(link)
		if err != nil {
			return status.Wrapf(err, status.APIUnexpectedResponse, "invalid next link %q", link)
		}
		next = next.ResolveReference(ref)
	}
}

// FetchAll collects every result of a paginated collection.
func (c *Client) FetchAll(ctx context.Context, path string, params url.Values) ([]any, error) {
	out := []any{}
	err := c.Paginate(ctx, path, params, func(page []any) error {
		out = append(out, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nextLink(obj map[string]any) string {
	links, ok := obj["links"].(map[string]any)
	if !ok {
		return ""
	}
	next, _ := links["next"].(string)
	return strings.TrimSpace(next)
}

// resolve joins a relative path to the base URL, keeping any base path
// prefix. Absolute URLs are returned as is.
func (c *Client) resolve(path string) *url.URL {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if u, err := url.Parse(path); err == nil {
			return u
		}
	}
	u := *c.baseURL
	rel, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
		return &u
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + rel.Path
	u.RawQuery = rel.RawQuery
	return &u
}

func (c *Client) do(ctx context.Context, u *url.URL) (any, error) {
	resp, err := c.send(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransport(ctx.Err())
		}
		return nil, status.Wrap(err, status.PayloadParseError, "decode response body")
	}
	return body, nil
}

// GetCSV performs one GET request for a CSV report and returns one object
// per data row, keyed by the header line. Values stay strings.
func (c *Client) GetCSV(ctx context.Context, path string, params url.Values) ([]any, error) {
	u := c.resolve(path)
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	resp, err := c.send(ctx, u, "text/csv")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, c.csvError(ctx, err)
	}

	rows := []any{}
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, c.csvError(ctx, err)
		}
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(line) {
				row[strings.TrimSpace(name)] = line[i]
			}
		}
		rows = append(rows, row)
	}
}

func (c *Client) csvError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return classifyTransport(ctx.Err())
	}
	return status.Wrap(err, status.PayloadParseError, "decode CSV body")
}

// send issues the request and classifies everything but a 200 response.
// The caller closes the body.
func (c *Client) send(ctx context.Context, u *url.URL, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, classifyTransport(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigInvalid, "build request")
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		classified := classifyTransport(err)
		c.logger.Debug("API request failed",
			zap.String(logger.FieldURL, u.Redacted()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(classified))
		return nil, classified
	}

	c.logger.Debug("API request",
		zap.String(logger.FieldURL, u.Redacted()),
		zap.Int(logger.FieldHTTPCode, resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := classifyStatus(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
