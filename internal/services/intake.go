package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/models"
	"google.golang.org/api/iterator"
)

// GCSEvent is the payload of a GCS object-finalized event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// ClaimIntakeConfig holds configuration for the storage-triggered intake.
type ClaimIntakeConfig struct {
	ReadyMarker string
}

type objectSource interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Read(ctx context.Context, bucket, name string) ([]byte, error)
}

type claimRunner interface {
	ProcessFrom(ctx context.Context, source string, files []models.UploadedFile) (*models.ClaimProcessingResult, error)
}

// ClaimIntakeFunction processes claims dropped into a bucket. Uploaders put the
// claim's PDFs under a common prefix and then write the ready marker object.
type ClaimIntakeFunction struct {
	objects   objectSource
	processor claimRunner
	config    ClaimIntakeConfig
}

// NewClaimIntake creates the intake on top of a claim processor.
func NewClaimIntake(ctx context.Context, processor *ClaimProcessorFunction) (*ClaimIntakeFunction, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	processor.closers = append(processor.closers, storageClient.Close)

	config := ClaimIntakeConfig{ReadyMarker: gcp.GetEnv("CLAIM_READY_MARKER", "READY")}
	return &ClaimIntakeFunction{
		objects:   &gcsObjectSource{client: storageClient},
		processor: processor,
		config:    config,
	}, nil
}

// Process reacts to one finalized object. Objects other than the ready marker are ignored.
func (f *ClaimIntakeFunction) Process(ctx context.Context, e GCSEvent) (*models.ClaimProcessingResult, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if path.Base(e.Name) != f.config.ReadyMarker {
		logCtx.Debug("Object is not a ready marker. Skipping.")
		return nil, nil
	}
	prefix := strings.TrimSuffix(e.Name, f.config.ReadyMarker)
	logCtx = logCtx.With("claimPrefix", prefix)
	logCtx.Info("Claim ready marker received.")

	names, err := f.objects.List(ctx, e.Bucket, prefix)
	if err != nil {
		logCtx.Error("Failed to list claim files", "error", err)
		return nil, err
	}

	var files []models.UploadedFile
	for _, name := range names {
		if name == e.Name || !IsPDFFilename(name) {
			continue
		}
		content, err := f.objects.Read(ctx, e.Bucket, name)
		if err != nil {
			logCtx.Error("Failed to download claim file", "error", err, "file", name)
			return nil, err
		}
		files = append(files, models.UploadedFile{Filename: path.Base(name), Content: content})
	}
	logCtx.Info("Loaded claim files.", "fileCount", len(files))

	source := fmt.Sprintf("%s:gs://%s/%s", SourceStorage, e.Bucket, prefix)
	return f.processor.ProcessFrom(ctx, source, files)
}

// gcsObjectSource lists and reads objects directly below a prefix.
type gcsObjectSource struct {
	client *storage.Client
}

func (s *gcsObjectSource) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: prefix, Delimiter: "/"}
	it := s.client.Bucket(bucket).Objects(ctx, query)

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		// Delimited listings also return synthetic prefix entries.
		if attrs.Name != "" {
			names = append(names, attrs.Name)
		}
	}
	return names, nil
}

func (s *gcsObjectSource) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	return gcp.ReadGCSObject(ctx, s.client.Bucket(bucket), name)
}
