package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// ErrUploadNotConfigured is returned when an upload is requested without an
// account URL or container.
var ErrUploadNotConfigured = errors.New("upload requires an account URL and a container")

// Uploader stores a finished artifact somewhere shared.
type Uploader interface {
	Upload(ctx context.Context, a *Artifact, name string) (string, error)
}

// blobAPI is the part of the azblob client the uploader uses.
type blobAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// BlobUploader writes gzip-compressed artifacts to an Azure blob container
// as <kind>/<name>.gz.
type BlobUploader struct {
	accountURL string
	container  string
	client     blobAPI
}

// NewBlobUploader authenticates with the default Azure credential chain.
func NewBlobUploader(accountURL, container string) (*BlobUploader, error) {
	if accountURL == "" || container == "" {
		return nil, ErrUploadNotConfigured
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("getting Azure credential: %w", err)
	}
	return newBlobUploader(accountURL, container, cred)
}

func newBlobUploader(accountURL, container string, cred azcore.TokenCredential) (*BlobUploader, error) {
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobUploader{accountURL: accountURL, container: container, client: client}, nil
}

// Upload returns the blob URL.
func (u *BlobUploader) Upload(ctx context.Context, a *Artifact, name string) (string, error) {
	var buf bytes.Buffer
	if err := Encode(a, &buf, true); err != nil {
		return "", err
	}

	name = strings.TrimSuffix(path.Base(name), ".gz")
	blobName := path.Join(string(a.Kind), name+".gz")
	contentType := "application/json"
	contentEncoding := "gzip"

	_, err := u.client.UploadBuffer(ctx, u.container, blobName, buf.Bytes(), &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"run_id": &a.RunID,
			"model":  &a.Model,
		},
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType:     &contentType,
			BlobContentEncoding: &contentEncoding,
		},
	})
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			slog.Warn("blob upload rejected", "status", respErr.StatusCode, "code", respErr.ErrorCode, "blob", blobName)
		}
		return "", fmt.Errorf("uploading %s: %w", blobName, err)
	}
	return strings.TrimRight(u.accountURL, "/") + "/" + u.container + "/" + blobName, nil
}
