package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
)

// Header names set on every request.
const (
	HeaderSDKVersion      = "SdkVersion"
	HeaderClientRequestID = "client-request-id"
)

// Request is a single Graph request under construction. Builder methods
// mutate and return the receiver.
type Request struct {
	client *Client
	url    string
	header http.Header
	query  url.Values
}

// Response is a completed 2xx response with its body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Content    []byte
}

// Header sets a request header, overriding the defaults.
func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

// Query merges OData system query options into the request.
func (r *Request) Query(opts domain.QueryOptions) *Request {
	for k, v := range opts.Values() {
		r.param(k, v...)
	}
	return r
}

// Param sets a custom query parameter.
func (r *Request) Param(key, value string) *Request {
	r.param(key, value)
	return r
}

func (r *Request) param(key string, values ...string) {
	if r.query == nil {
		r.query = make(url.Values)
	}
	r.query[key] = values
}

// URL returns the full request URL including query options.
func (r *Request) URL() string {
	if len(r.query) == 0 {
		return r.url
	}
	u, err := url.Parse(r.url)
	if err != nil {
		sep := "?"
		if strings.Contains(r.url, "?") {
			sep = "&"
		}
		return r.url + sep + r.query.Encode()
	}
	q := u.Query()
	for k, v := range r.query {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// child appends a path segment, keeping headers and query options.
func (r *Request) child(segment string) *Request {
	base, rawQuery, _ := strings.Cut(r.url, "?")
	next := strings.TrimRight(base, "/") + "/" + segment
	if rawQuery != "" {
		next += "?" + rawQuery
	}
	query := make(url.Values, len(r.query))
	for k, v := range r.query {
		query[k] = append([]string(nil), v...)
	}
	return &Request{client: r.client, url: next, header: r.header.Clone(), query: query}
}

// Send performs the request and reads the body. Non-2xx responses are
// returned as *ServiceError.
func (r *Request) Send(ctx context.Context, method string, body any) (*Response, error) {
	resp, err := r.do(ctx, method, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, newServiceError(resp.StatusCode, resp.Header, content)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Content: content}, nil
}

func (r *Request) do(ctx context.Context, method string, body any) (*http.Response, error) {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(HeaderSDKVersion, r.client.sdkVersion)
	req.Header.Set(HeaderClientRequestID, uuid.NewString())
	for k, v := range r.header {
		req.Header[k] = v
	}

	if r.client.auth != nil {
		if err := r.client.auth.Authenticate(ctx, req); err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}
	if r.client.limiter != nil {
		if err := r.client.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	logger.Debug("%s %s", method, req.URL.Redacted())
	resp, err := r.client.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", strings.ToLower(method), err)
	}
	return resp, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return http.NoBody, "", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case io.Reader:
		return b, "application/octet-stream", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// Get fetches the resource.
func (r *Request) Get(ctx context.Context) (*Envelope, error) {
	return r.envelope(ctx, http.MethodGet, nil)
}

// Post creates an object or invokes an action.
func (r *Request) Post(ctx context.Context, body any) (*Envelope, error) {
	return r.envelope(ctx, http.MethodPost, body)
}

// Patch updates the resource with the given properties.
func (r *Request) Patch(ctx context.Context, body any) (*Envelope, error) {
	return r.envelope(ctx, http.MethodPatch, body)
}

// Delete removes the resource.
func (r *Request) Delete(ctx context.Context) error {
	_, err := r.Send(ctx, http.MethodDelete, nil)
	return err
}

func (r *Request) envelope(ctx context.Context, method string, body any) (*Envelope, error) {
	resp, err := r.Send(ctx, method, body)
	if err != nil {
		return nil, err
	}
	return ParseEnvelope(resp.Content)
}

// GetValue fetches the raw `$value` of the resource, e.g. a message's MIME
// content or a drive item's bytes.
func (r *Request) GetValue(ctx context.Context) ([]byte, error) {
	resp, err := r.child("$value").Header("Accept", "*/*").Send(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// Download streams the resource body to path and returns the number of
// bytes written. The file is replaced atomically.
func (r *Request) Download(ctx context.Context, path string) (int64, error) {
	r.Header("Accept", "*/*")
	resp, err := r.do(ctx, http.MethodGet, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		content, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return 0, newServiceError(resp.StatusCode, resp.Header, content)
	}

	n, err := writeFileAtomic(path, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("download to %s: %w", path, err)
	}
	return n, nil
}

// writeFileAtomic copies src into a temporary file next to path and
// renames it into place.
func writeFileAtomic(path string, src io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return n, nil
}
