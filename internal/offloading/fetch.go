package offloading

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/storage"
)

// URIFetcher performs a "URI fetch": a side-effectful GET that appends
// the full body into memory. http(s):// and file:// are handled
// directly; s3:// and gs:// are delegated to pkg/storage's S3/GCS
// backends.
type URIFetcher struct {
	StorageFactory storage.Factory
	HTTPClient     *http.Client
}

// NewURIFetcher builds a fetcher using http.DefaultClient when client is nil.
func NewURIFetcher(factory storage.Factory, client *http.Client) *URIFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &URIFetcher{StorageFactory: factory, HTTPClient: client}
}

// Fetch retrieves uri's full body into memory.
func (f *URIFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return f.fetchHTTP(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		body, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, mlerrors.Wrap(mlerrors.IoError, "offloading.Fetch", err)
		}
		return body, nil
	case strings.HasPrefix(uri, "s3://"):
		return f.fetchStorage(ctx, storage.ProviderS3, uri)
	case strings.HasPrefix(uri, "gs://"):
		return f.fetchStorage(ctx, storage.ProviderGCS, uri)
	default:
		return nil, mlerrors.New(mlerrors.InvalidParameter, "offloading.Fetch", "unsupported uri scheme: "+uri)
	}
}

func (f *URIFetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.InvalidParameter, "offloading.Fetch", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "offloading.Fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mlerrors.New(mlerrors.IoError, "offloading.Fetch", "unexpected status: "+resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "offloading.Fetch", err)
	}
	return body, nil
}

func (f *URIFetcher) fetchStorage(ctx context.Context, provider storage.Provider, uri string) ([]byte, error) {
	if f.StorageFactory == nil {
		return nil, mlerrors.New(mlerrors.NotSupported, "offloading.Fetch", "no storage backend configured for uri: "+uri)
	}
	backend, err := f.StorageFactory.Backend(ctx, provider)
	if err != nil {
		return nil, err
	}
	rc, err := backend.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "offloading.Fetch", err)
	}
	return body, nil
}
