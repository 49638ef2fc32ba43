package storage

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

type s3Backend struct {
	client *s3.Client
}

// newS3Backend resolves credentials through the AWS SDK's own default
// chain (environment, shared config, EC2/ECS role) rather than a
// separate credential-factory layer.
func newS3Backend(ctx context.Context) (Backend, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "storage.newS3Backend", err)
	}
	return &s3Backend{client: s3.NewFromConfig(cfg)}, nil
}

// Get fetches an "s3://bucket/key" object.
func (b *s3Backend) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mlerrors.Wrap(mlerrors.IoError, "storage.s3Backend.Get", err)
	}
	return out.Body, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	if rest == uri {
		return "", "", mlerrors.New(mlerrors.InvalidParameter, "storage.parseS3URI", "uri must start with s3://")
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", mlerrors.New(mlerrors.InvalidParameter, "storage.parseS3URI", "uri must be s3://bucket/key")
	}
	return parts[0], parts[1], nil
}
