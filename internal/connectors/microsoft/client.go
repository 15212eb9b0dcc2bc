package microsoft

import (
	"net/http"
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
)

// DefaultBaseURL is the Microsoft Graph v1.0 service root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultSDKVersion is sent in the SdkVersion header unless overridden.
const DefaultSDKVersion = "msgraph-cli/dev"

// Client is a Microsoft Graph client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	doer       driven.HTTPDoer
	auth       driven.Authenticator
	limiter    *RateLimiter
	sdkVersion string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPDoer sets the transport. Defaults to http.DefaultClient.
func WithHTTPDoer(doer driven.HTTPDoer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithAuthenticator sets the hook invoked before every request.
func WithAuthenticator(auth driven.Authenticator) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithRateLimiter paces requests. Without one, requests are sent immediately.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithSDKVersion overrides the SdkVersion header value.
func WithSDKVersion(version string) Option {
	return func(c *Client) {
		c.sdkVersion = version
	}
}

// NewClient creates a client rooted at baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		doer:       http.DefaultClient,
		sdkVersion: DefaultSDKVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request starts a request for a resource path such as "me/messages".
// Absolute URLs (next links, delta links) are used as-is.
func (c *Client) Request(resource string) *Request {
	return &Request{
		client: c,
		url:    c.resolve(resource),
		header: make(http.Header),
	}
}

func (c *Client) resolve(resource string) string {
	if isAbsolute(resource) {
		return resource
	}
	return c.baseURL + "/" + strings.TrimLeft(resource, "/")
}

func isAbsolute(resource string) bool {
	return strings.HasPrefix(resource, "https://") || strings.HasPrefix(resource, "http://")
}
