package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlob struct {
	container, name string
	data            []byte
	opts            *azblob.UploadBufferOptions
	err             error
}

func (f *fakeBlob) UploadBuffer(_ context.Context, container, name string, data []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.name, f.data, f.opts = container, name, data, o
	return azblob.UploadBufferResponse{}, f.err
}

func TestBlobUploader_Upload(t *testing.T) {
	fake := &fakeBlob{}
	u := &BlobUploader{accountURL: "https://acct.blob.core.windows.net/", container: "evals", client: fake}
	a := NewArtifact(KindSizeImpact, "haiku")

	url, err := u.Upload(t.Context(), a, "results/size-impact/20260101_000000_haiku.json")
	require.NoError(t, err)

	assert.Equal(t, "evals", fake.container)
	assert.Equal(t, "size-impact/20260101_000000_haiku.json.gz", fake.name)
	assert.Equal(t, "https://acct.blob.core.windows.net/evals/size-impact/20260101_000000_haiku.json.gz", url)
	assert.Equal(t, a.RunID, *fake.opts.Metadata["run_id"])
	assert.Equal(t, "gzip", *fake.opts.HTTPHeaders.BlobContentEncoding)

	zr, err := gzip.NewReader(bytes.NewReader(fake.data))
	require.NoError(t, err)
	var got Artifact
	require.NoError(t, json.NewDecoder(zr).Decode(&got))
	assert.Equal(t, a.RunID, got.RunID)
}

func TestBlobUploader_Error(t *testing.T) {
	u := &BlobUploader{accountURL: "https://acct", container: "evals", client: &fakeBlob{err: errors.New("denied")}}

	_, err := u.Upload(t.Context(), NewArtifact(KindActivation, "haiku"), "x.json")
	require.ErrorContains(t, err, "denied")
}

func TestNewBlobUploader_RequiresConfig(t *testing.T) {
	_, err := NewBlobUploader("", "evals")
	require.ErrorIs(t, err, ErrUploadNotConfigured)
}
