package microsoft

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
	"github.com/custodia-labs/msgraph-cli/internal/odata/csdl"
)

// Ensure MetadataFetcher implements the interface.
var _ driven.MetadataSource = (*MetadataFetcher)(nil)

// DefaultMetadataCache is the cache file name used when none is configured.
const DefaultMetadataCache = "metadata.xml"

// DefaultFetchTimeout bounds the $metadata download. The Graph document is
// tens of megabytes.
const DefaultFetchTimeout = 2 * time.Minute

// MetadataFetcher serves the $metadata document from a local cache file,
// downloading it once when the file is absent. An existing cache file is
// never revalidated.
type MetadataFetcher struct {
	client    *Client
	cachePath string
	timeout   time.Duration
}

// NewMetadataFetcher creates a fetcher. Zero values select the defaults.
func NewMetadataFetcher(client *Client, cachePath string, timeout time.Duration) *MetadataFetcher {
	if cachePath == "" {
		cachePath = DefaultMetadataCache
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &MetadataFetcher{client: client, cachePath: cachePath, timeout: timeout}
}

// CachePath returns the cache file location.
func (f *MetadataFetcher) CachePath() string {
	return f.cachePath
}

// Open returns the cached document, fetching <base>/$metadata first if
// there is no cache file.
func (f *MetadataFetcher) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.cachePath)
	if err == nil {
		logger.Debug("using cached metadata %s", f.cachePath)
		return file, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	logger.Info("downloading %s/$metadata", f.client.BaseURL())
	resp, err := f.client.Request("$metadata").
		Header("Accept", "application/xml").
		Send(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	// Only a document that parses is cached: the cache is never revalidated.
	if _, err := csdl.Parse(bytes.NewReader(resp.Content)); err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	if _, err := writeFileAtomic(f.cachePath, bytes.NewReader(resp.Content)); err != nil {
		logger.Warn("could not cache metadata at %s: %v", f.cachePath, err)
	}
	return io.NopCloser(bytes.NewReader(resp.Content)), nil
}
