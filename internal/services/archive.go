package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/models"
)

// GCSArchive keeps a copy of every uploaded claim file in a bucket.
type GCSArchive struct {
	bucket     *storage.BucketHandle
	bucketName string
	retry      retryPolicy
}

// NewGCSArchive archives into the named bucket.
func NewGCSArchive(client *storage.Client, bucketName string) *GCSArchive {
	return &GCSArchive{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		retry:      defaultRetryPolicy,
	}
}

// Archive stores file under <claimID>/<position>_<name> and returns its gs:// URI.
func (a *GCSArchive) Archive(ctx context.Context, claimID string, index int, file models.UploadedFile) (string, error) {
	objectName := archiveObjectName(claimID, index, file.Filename)
	err := withRetry(ctx, a.retry, "archive "+objectName, func(ctx context.Context) error {
		return gcp.SaveToGCSAtomically(ctx, a.bucket, objectName, file.Content, "application/pdf")
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", a.bucketName, objectName), nil
}

func archiveObjectName(claimID string, index int, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = "document.pdf"
	}
	return fmt.Sprintf("%s/%02d_%s", claimID, index+1, base)
}
