package microsoft

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	msendpoint "golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
)

// Ensure the authenticators implement the interface.
var (
	_ driven.Authenticator = (*TokenSourceAuthenticator)(nil)
	_ driven.Authenticator = NoAuth{}
)

// ErrAuthRequired indicates the configured auth mode lacks a credential.
var ErrAuthRequired = errors.New("microsoft: authentication required")

// DefaultScopes requests every permission granted to the app registration.
var DefaultScopes = []string{"https://graph.microsoft.com/.default"}

// defaultTenant is the multi-tenant authority.
const defaultTenant = "common"

// TokenSourceAuthenticator sets a bearer token from an oauth2.TokenSource.
// The source caches and refreshes tokens as needed.
type TokenSourceAuthenticator struct {
	source oauth2.TokenSource
}

// NewTokenSourceAuthenticator wraps a token source.
func NewTokenSourceAuthenticator(source oauth2.TokenSource) *TokenSourceAuthenticator {
	return &TokenSourceAuthenticator{source: source}
}

// Authenticate sets the Authorization header.
func (a *TokenSourceAuthenticator) Authenticate(_ context.Context, req *http.Request) error {
	tok, err := a.source.Token()
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// NoAuth leaves requests untouched.
type NoAuth struct{}

// Authenticate does nothing.
func (NoAuth) Authenticate(context.Context, *http.Request) error {
	return nil
}

// StaticToken authenticates every request with a pre-acquired access token.
func StaticToken(accessToken string) *TokenSourceAuthenticator {
	return NewTokenSourceAuthenticator(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// NewAuthenticator builds the authenticator selected by settings.
// ctx is used for token endpoint calls for the authenticator's lifetime.
func NewAuthenticator(ctx context.Context, s domain.AuthSettings) (driven.Authenticator, error) {
	switch s.Mode {
	case domain.AuthModeNone:
		return NoAuth{}, nil

	case domain.AuthModeToken, "":
		if s.AccessToken == "" {
			return nil, fmt.Errorf("%w: no access token configured", ErrAuthRequired)
		}
		return StaticToken(s.AccessToken), nil

	case domain.AuthModeRefreshToken:
		if s.ClientID == "" || s.RefreshToken == "" {
			return nil, fmt.Errorf("%w: refresh_token mode needs client_id and refresh_token", ErrAuthRequired)
		}
		cfg := &oauth2.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			Endpoint:     endpoint(s),
			Scopes:       scopes(s.Scopes, true),
		}
		return NewTokenSourceAuthenticator(cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.RefreshToken})), nil

	case domain.AuthModeClientCredentials:
		if s.ClientID == "" || s.ClientSecret == "" {
			return nil, fmt.Errorf("%w: client_credentials mode needs client_id and client_secret", ErrAuthRequired)
		}
		if s.TenantID == "" || s.TenantID == defaultTenant {
			return nil, fmt.Errorf("%w: client_credentials mode needs a tenant_id", ErrAuthRequired)
		}
		cfg := &clientcredentials.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			TokenURL:     endpoint(s).TokenURL,
			Scopes:       scopes(s.Scopes, false),
		}
		return NewTokenSourceAuthenticator(cfg.TokenSource(ctx)), nil
	}
	return nil, fmt.Errorf("unknown auth mode %q: %w", s.Mode, domain.ErrInvalidInput)
}

func endpoint(s domain.AuthSettings) oauth2.Endpoint {
	tenant := s.TenantID
	if tenant == "" {
		tenant = defaultTenant
	}
	ep := msendpoint.AzureADEndpoint(tenant)
	if s.TokenURL != "" {
		ep.TokenURL = s.TokenURL
	}
	return ep
}

// scopes applies the default. Delegated flows also need offline_access
// to keep receiving refresh tokens.
func scopes(configured []string, delegated bool) []string {
	out := configured
	if len(out) == 0 {
		out = DefaultScopes
	}
	if !delegated {
		return out
	}
	for _, s := range out {
		if strings.EqualFold(s, "offline_access") {
			return out
		}
	}
	return append(append([]string(nil), out...), "offline_access")
}
