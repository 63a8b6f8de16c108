package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/models"
	"github.com/Lllllllleong/claimflow/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Claim sources recorded on each claim record.
const (
	SourceAPI     = "api"
	SourceStorage = "storage"
	SourceCLI     = "cli"
)

// ClaimProcessorConfig holds all configuration for the claim processor.
type ClaimProcessorConfig struct {
	ProjectID                string
	VertexAIRegion           string
	GeminiModel              string
	ExtractionTimeout        time.Duration
	MaxConcurrentExtractions int
	ArchiveBucket            string
	FirestoreDatabase        string
	ClaimsCollection         string
	ReviewWorkflowID         string
	WorkflowLocation         string
}

type textExtractor interface {
	ExtractText(content []byte) string
}

type documentClassifier interface {
	Classify(ctx context.Context, text, filename string) models.DocumentType
}

type fieldExtractor interface {
	Extract(ctx context.Context, docType models.DocumentType, text string) (models.Fields, error)
}

type documentArchive interface {
	Archive(ctx context.Context, claimID string, index int, file models.UploadedFile) (string, error)
}

type claimStore interface {
	Create(ctx context.Context, record models.ClaimRecord) error
	Update(ctx context.Context, claimID string, updates []firestore.Update) error
}

type reviewTrigger interface {
	TriggerReview(ctx context.Context, claimID string, decision models.ClaimDecision) (string, error)
}

// ClaimProcessorFunction runs one claim through extraction, validation and decision.
// It holds no per-claim state, so a single instance serves concurrent requests.
type ClaimProcessorFunction struct {
	text       textExtractor
	classifier documentClassifier
	extractor  fieldExtractor

	// archive, store and review are optional and nil when not configured.
	archive documentArchive
	store   claimStore
	review  reviewTrigger

	config  ClaimProcessorConfig
	now     func() time.Time
	newID   func() string
	closers []func() error
}

// LoadClaimProcessorConfig loads and validates the environment for the processor.
func LoadClaimProcessorConfig() (*ClaimProcessorConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	timeout, err := gcp.GetEnvDuration("EXTRACTION_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	workers, err := gcp.GetEnvInt("MAX_CONCURRENT_EXTRACTIONS", 3)
	if err != nil {
		return nil, err
	}

	return &ClaimProcessorConfig{
		ProjectID:                projectID,
		VertexAIRegion:           gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		GeminiModel:              gcp.GetEnv("GEMINI_MODEL", gcp.DefaultGeminiModel),
		ExtractionTimeout:        timeout,
		MaxConcurrentExtractions: workers,
		ArchiveBucket:            gcp.GetEnv("CLAIM_ARCHIVE_BUCKET", ""),
		FirestoreDatabase:        gcp.GetEnv("FIRESTORE_DATABASE", ""),
		ClaimsCollection:         gcp.GetEnv("FIRESTORE_COLLECTION", "claims"),
		ReviewWorkflowID:         gcp.GetEnv("REVIEW_WORKFLOW_ID", ""),
		WorkflowLocation:         gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}, nil
}

// NewClaimProcessor creates a processor wired to Vertex AI and, when configured,
// to Cloud Storage, Firestore and Cloud Workflows.
func NewClaimProcessor(ctx context.Context) (*ClaimProcessorFunction, error) {
	config, err := LoadClaimProcessorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	f := newClaimProcessor(*config, NewPDFTextExtractor(),
		NewGeminiClassifier(vertexClient.ClassifierModel),
		NewGeminiExtractor(vertexClient.ExtractorModel))
	f.closers = append(f.closers, vertexClient.Close)

	if config.ArchiveBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		f.archive = NewGCSArchive(storageClient, config.ArchiveBucket)
		f.closers = append(f.closers, storageClient.Close)
	}

	if config.ClaimsCollection != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.FirestoreDatabase)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.store = NewFirestoreClaimStore(firestoreClient, config.ClaimsCollection)
		f.closers = append(f.closers, firestoreClient.Close)
	}

	if config.ReviewWorkflowID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		f.review = NewWorkflowReviewTrigger(executionsClient, config.ProjectID, config.WorkflowLocation, config.ReviewWorkflowID)
		f.closers = append(f.closers, executionsClient.Close)
	}

	slog.Info("Claim processor initialized.",
		"model", config.GeminiModel,
		"archiveBucket", config.ArchiveBucket,
		"claimsCollection", config.ClaimsCollection,
		"reviewWorkflowId", config.ReviewWorkflowID,
	)
	return f, nil
}

func newClaimProcessor(config ClaimProcessorConfig, text textExtractor, classifier documentClassifier, extractor fieldExtractor) *ClaimProcessorFunction {
	if config.MaxConcurrentExtractions <= 0 {
		config.MaxConcurrentExtractions = 1
	}
	return &ClaimProcessorFunction{
		text:       text,
		classifier: classifier,
		extractor:  extractor,
		config:     config,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Close releases every client the processor created.
func (f *ClaimProcessorFunction) Close() error {
	var errs []error
	for _, closeFn := range f.closers {
		errs = append(errs, closeFn())
	}
	f.closers = nil
	return errors.Join(errs...)
}

// Process handles a claim submitted over the API.
func (f *ClaimProcessorFunction) Process(ctx context.Context, files []models.UploadedFile) (*models.ClaimProcessingResult, error) {
	return f.ProcessFrom(ctx, SourceAPI, files)
}

// ProcessFrom runs the claim pipeline. Missing documents and discrepancies are
// a normal rejected result; an error means the claim failed as a whole and no
// partial result is returned.
func (f *ClaimProcessorFunction) ProcessFrom(ctx context.Context, source string, files []models.UploadedFile) (*models.ClaimProcessingResult, error) {
	if err := ValidateUploads(files); err != nil {
		return nil, err
	}

	claimID := f.newID()
	logCtx := slog.With("claimId", claimID, "source", source)
	logCtx.Info("Processing new claim.", "fileCount", len(files))

	if err := f.createRecord(ctx, claimID, source, files); err != nil {
		logCtx.Error("Failed to create claim record", "error", err)
		return nil, err
	}

	archiveURIs, err := f.archiveFiles(ctx, claimID, files)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, claimID, "failed to archive claim files", err)
	}

	docs, err := f.extractDocuments(ctx, logCtx, files)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, claimID, "document extraction failed", err)
	}

	decidedAt := f.now()
	result := validation.Evaluate(docs, decidedAt)
	result.ClaimID = claimID
	logCtx.Info("Claim decided.",
		"status", result.ClaimDecision.Status,
		"missingDocuments", result.Validation.MissingDocuments,
		"discrepancyCount", len(result.Validation.Discrepancies),
	)

	if f.store != nil {
		if err := f.store.Update(ctx, claimID, decidedUpdates(result, archiveURIs, decidedAt)); err != nil {
			return nil, f.handleError(ctx, logCtx, claimID, "failed to record claim decision", err)
		}
	}

	f.requestReview(ctx, logCtx, claimID, result.ClaimDecision)
	return &result, nil
}

// extractDocuments classifies and extracts every file concurrently. The first
// hard failure cancels the remaining calls and fails the claim. Documents keep
// their upload order.
func (f *ClaimProcessorFunction) extractDocuments(ctx context.Context, logCtx *slog.Logger, files []models.UploadedFile) ([]models.Document, error) {
	docs := make([]models.Document, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.MaxConcurrentExtractions)

	for i, file := range files {
		eg.Go(func() error {
			doc, err := f.extractDocument(gctx, logCtx, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Filename, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (f *ClaimProcessorFunction) extractDocument(ctx context.Context, logCtx *slog.Logger, file models.UploadedFile) (models.Document, error) {
	docLog := logCtx.With("filename", file.Filename)

	if f.config.ExtractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.ExtractionTimeout)
		defer cancel()
	}

	text := f.extractText(docLog, file.Content)
	docType := f.classifier.Classify(ctx, text, file.Filename)
	if !docType.Known() {
		docLog.Warn("Document could not be classified. Excluding it from the claim.")
		return models.Document{Type: models.DocumentTypeUnknown}, nil
	}

	fields, err := f.extractor.Extract(ctx, docType, text)
	if err != nil {
		docLog.Error("Field extraction failed", "documentType", docType, "error", err)
		return models.Document{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	docLog.Info("Document extracted.", "documentType", docType, "fieldCount", len(fields))
	return models.Document{Type: docType, Fields: fields}, nil
}

// extractText never lets a text extractor panic escape into the worker
// goroutine; the document is read as TextExtractionFailed instead.
func (f *ClaimProcessorFunction) extractText(docLog *slog.Logger, content []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			docLog.Error("Text extraction panicked", "panic", fmt.Sprint(r))
			text = TextExtractionFailed
		}
	}()
	return f.text.ExtractText(content)
}

func (f *ClaimProcessorFunction) createRecord(ctx context.Context, claimID, source string, files []models.UploadedFile) error {
	if f.store == nil {
		return nil
	}
	record := models.ClaimRecord{
		ClaimID:    claimID,
		State:      models.ClaimStateProcessing,
		Source:     source,
		Filenames:  make([]string, len(files)),
		FileHashes: make([]string, len(files)),
		CreatedAt:  f.now(),
	}
	for i, file := range files {
		record.Filenames[i] = file.Filename
		record.FileHashes[i] = calculateContentHash(file.Content)
	}
	return f.store.Create(ctx, record)
}

func (f *ClaimProcessorFunction) archiveFiles(ctx context.Context, claimID string, files []models.UploadedFile) ([]string, error) {
	if f.archive == nil {
		return nil, nil
	}
	uris := make([]string, len(files))
	for i, file := range files {
		uri, err := f.archive.Archive(ctx, claimID, i, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Filename, err)
		}
		uris[i] = uri
	}
	return uris, nil
}

// requestReview starts manual review for a rejected claim. The decision is
// already recorded, so a failure here is logged rather than returned.
func (f *ClaimProcessorFunction) requestReview(ctx context.Context, logCtx *slog.Logger, claimID string, decision models.ClaimDecision) {
	if f.review == nil || decision.Status != models.ClaimStatusRejected {
		return
	}
	execution, err := f.review.TriggerReview(ctx, claimID, decision)
	if err != nil {
		logCtx.Error("Failed to hand claim to manual review", "error", err)
		return
	}
	logCtx.Info("Claim handed to manual review.", "execution", execution)
}

func (f *ClaimProcessorFunction) handleError(ctx context.Context, logCtx *slog.Logger, claimID, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	if f.store != nil {
		details := fmt.Sprintf("%s: %v", message, originalErr)
		if err := f.store.Update(ctx, claimID, failedUpdates(details)); err != nil {
			logCtx.Error("CRITICAL: Failed to mark claim record as FAILED after a processing error.", "updateError", err)
		}
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}
