package driven

import (
	"context"
	"io"
	"net/http"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

// Authenticator prepares an outgoing request before it is sent,
// typically by setting the Authorization header.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// HTTPDoer sends HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MetadataSource opens the service's CSDL metadata document.
type MetadataSource interface {
	// Open returns the document. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ConfigStore persists CLI settings.
type ConfigStore interface {
	// Load returns the stored settings merged over the defaults.
	// A missing file is not an error.
	Load() (*domain.Settings, error)

	// Save writes the settings, creating parent directories as needed.
	Save(settings *domain.Settings) error

	// Path returns the backing file location.
	Path() string
}
