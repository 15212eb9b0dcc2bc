package domain

import "time"

// Settings is the persisted CLI configuration.
type Settings struct {
	// BaseURL is the Graph service root, e.g. https://graph.microsoft.com/v1.0.
	BaseURL string `toml:"base_url"`
	// MetadataCache is the local copy of the $metadata document.
	// It is fetched once when missing and never refreshed.
	MetadataCache string `toml:"metadata_cache"`
	// FetchTimeout bounds the $metadata download.
	FetchTimeout Duration `toml:"fetch_timeout"`
	// RequestTimeout bounds every Graph request.
	RequestTimeout Duration `toml:"request_timeout"`

	Auth      AuthSettings      `toml:"auth"`
	RateLimit RateLimitSettings `toml:"rate_limit"`
}

// AuthMode selects how requests are authenticated.
type AuthMode string

const (
	// AuthModeToken sends a pre-acquired bearer token.
	AuthModeToken AuthMode = "token"
	// AuthModeRefreshToken exchanges a refresh token for access tokens.
	AuthModeRefreshToken AuthMode = "refresh_token"
	// AuthModeClientCredentials uses the app-only client credentials grant.
	AuthModeClientCredentials AuthMode = "client_credentials"
	// AuthModeNone sends no Authorization header.
	AuthModeNone AuthMode = "none"
)

// AuthSettings configures the request authenticator.
type AuthSettings struct {
	Mode         AuthMode `toml:"mode"`
	TenantID     string   `toml:"tenant_id"`
	// TokenURL overrides the tenant's v2.0 token endpoint, e.g. for national clouds.
	TokenURL     string   `toml:"token_url,omitempty"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret,omitempty"`
	AccessToken  string   `toml:"access_token,omitempty"`
	RefreshToken string   `toml:"refresh_token,omitempty"`
	Scopes       []string `toml:"scopes"`
}

// RateLimitSettings configures the client-side token bucket.
type RateLimitSettings struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
}

// DefaultSettings returns settings usable against the public Graph endpoint.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:        "https://graph.microsoft.com/v1.0",
		MetadataCache:  "metadata.xml",
		FetchTimeout:   Duration(2 * time.Minute),
		RequestTimeout: Duration(60 * time.Second),
		Auth: AuthSettings{
			Mode:     AuthModeToken,
			TenantID: "common",
			Scopes:   []string{"https://graph.microsoft.com/.default"},
		},
		RateLimit: RateLimitSettings{
			RequestsPerSecond: 10.0,
			BurstSize:         15,
		},
	}
}

// Duration is a time.Duration stored as text ("90s", "2m") in config files.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
