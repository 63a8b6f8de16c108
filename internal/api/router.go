package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/Lllllllleong/claimflow/internal/models"
	"github.com/Lllllllleong/claimflow/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxUploadBytes caps the size of one claim submission.
const DefaultMaxUploadBytes int64 = 32 << 20

// ClaimProcessor runs the claim pipeline for uploaded files.
type ClaimProcessor interface {
	Process(ctx context.Context, files []models.UploadedFile) (*models.ClaimProcessingResult, error)
}

type handler struct {
	processor      ClaimProcessor
	maxUploadBytes int64
}

// NewRouter builds the claim API: POST /process-claim and GET /health.
func NewRouter(processor ClaimProcessor, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	h := &handler{processor: processor, maxUploadBytes: maxUploadBytes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
	})
	r.Post("/process-claim", h.processClaim)
	return r
}

func (h *handler) processClaim(w http.ResponseWriter, r *http.Request) {
	logCtx := slog.With("requestId", middleware.GetReqID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			writeError(w, http.StatusBadRequest, "No files uploaded")
			return
		}
		writeError(w, http.StatusBadRequest, "Could not parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	for _, fh := range headers {
		if !services.IsPDFFilename(fh.Filename) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("File %s is not a PDF", fh.Filename))
			return
		}
	}

	files, err := readUploads(headers)
	if err != nil {
		logCtx.Error("Failed to read uploaded files", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing claim: %v", err))
		return
	}

	result, err := h.processor.Process(r.Context(), files)
	if err != nil {
		if services.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logCtx.Error("Error processing claim", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing claim: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readUploads(headers []*multipart.FileHeader) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, models.UploadedFile{Filename: fh.Filename, Content: content})
	}
	return files, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
