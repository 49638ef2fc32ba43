package storage

import (
	"context"
	"io"
	"strings"

	gstorage "google.golang.org/api/storage/v1"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

type gcsBackend struct {
	svc *gstorage.Service
}

// newGCSBackend resolves credentials through google.golang.org/api's own
// application-default-credentials chain.
func newGCSBackend(ctx context.Context) (Backend, error) {
	svc, err := gstorage.NewService(ctx)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "storage.newGCSBackend", err)
	}
	return &gcsBackend{svc: svc}, nil
}

// Get fetches a "gs://bucket/object" object.
func (b *gcsBackend) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	resp, err := b.svc.Objects.Get(bucket, object).Context(ctx).Download()
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "storage.gcsBackend.Get", err)
	}
	return resp.Body, nil
}

func parseGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, "gs://")
	if rest == uri {
		return "", "", mlerrors.New(mlerrors.InvalidParameter, "storage.parseGCSURI", "uri must start with gs://")
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", mlerrors.New(mlerrors.InvalidParameter, "storage.parseGCSURI", "uri must be gs://bucket/object")
	}
	return parts[0], parts[1], nil
}
