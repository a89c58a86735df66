//go:build integration

package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portola-retreat/concierge/internal/testutil"
)

func TestS3Client_IndexArtifactRoundTrip(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "concierge-index",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	artifact := []byte(`{"createdAt":"2025-10-18T12:00:00Z","chunks":[]}`)
	require.NoError(t, client.PutObject(ctx, "index.json", "application/json", bytes.NewReader(artifact)))

	etag, err := client.ObjectETag(ctx, "index.json")
	require.NoError(t, err)
	assert.NotEmpty(t, etag)

	data, err := client.GetObject(ctx, "index.json")
	require.NoError(t, err)
	assert.Equal(t, artifact, data)

	// Overwriting with different content changes the etag
	require.NoError(t, client.PutObject(ctx, "index.json", "application/json",
		bytes.NewReader([]byte(`{"createdAt":"2025-10-19T12:00:00Z","chunks":[]}`))))
	etag2, err := client.ObjectETag(ctx, "index.json")
	require.NoError(t, err)
	assert.NotEqual(t, etag, etag2)

	require.NoError(t, client.DeleteObject(ctx, "index.json"))
	_, err = client.GetObject(ctx, "index.json")
	assert.Error(t, err)
}
