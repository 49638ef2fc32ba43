package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URI(t *testing.T) {
	bucket, key, err := parseS3URI("s3://my-bucket/models/a.tflite")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "models/a.tflite", key)
}

func TestParseS3URI_Rejects(t *testing.T) {
	for _, uri := range []string{"gs://bucket/key", "s3://bucket", "s3:///key", "s3://bucket/"} {
		_, _, err := parseS3URI(uri)
		assert.Error(t, err, uri)
	}
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := parseGCSURI("gs://my-bucket/pipelines/p1.json")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "pipelines/p1.json", object)
}

func TestParseGCSURI_Rejects(t *testing.T) {
	for _, uri := range []string{"s3://bucket/key", "gs://bucket", "gs:///key", "gs://bucket/"} {
		_, _, err := parseGCSURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestDefaultFactory_UnsupportedProvider(t *testing.T) {
	f := NewDefaultFactory()
	_, err := f.Backend(context.Background(), Provider("azure"))
	require.Error(t, err)
}
