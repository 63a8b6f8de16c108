package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/claimflow/internal/models"
	"github.com/Lllllllleong/claimflow/internal/services"
)

type stubProcessor struct {
	result *models.ClaimProcessingResult
	err    error
	files  []models.UploadedFile
	called bool
}

func (s *stubProcessor) Process(_ context.Context, files []models.UploadedFile) (*models.ClaimProcessingResult, error) {
	s.called = true
	s.files = files
	return s.result, s.err
}

func multipartRequest(t *testing.T, files map[string]string, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-claim", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(&stubProcessor{}, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestProcessClaim(t *testing.T) {
	approved := &models.ClaimProcessingResult{
		ClaimID: "claim-1",
		Documents: []models.Document{{Type: models.DocumentTypeBill, Fields: models.Fields{
			"hospital_name": "General Hospital", "total_amount": 500.0, "date_of_service": "2024-01-10",
		}}},
		Validation:    models.ValidationResult{MissingDocuments: []models.DocumentType{}, Discrepancies: []string{}},
		ClaimDecision: models.ClaimDecision{Status: models.ClaimStatusApproved, Reason: "ok"},
	}

	t.Run("returns the claim result", func(t *testing.T) {
		stub := &stubProcessor{result: approved}
		req := multipartRequest(t, map[string]string{"bill.pdf": "%PDF bill", "Card.PDF": "%PDF card"}, "bill.pdf", "Card.PDF")
		rec := httptest.NewRecorder()

		NewRouter(stub, 0).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{
			"claim_id": "claim-1",
			"documents": [{"type":"bill","hospital_name":"General Hospital","total_amount":500,"date_of_service":"2024-01-10"}],
			"validation": {"missing_documents": [], "discrepancies": []},
			"claim_decision": {"status": "approved", "reason": "ok"}
		}`, rec.Body.String())

		require.Len(t, stub.files, 2)
		assert.Equal(t, "bill.pdf", stub.files[0].Filename)
		assert.Equal(t, []byte("%PDF card"), stub.files[1].Content)
	})

	t.Run("rejects non pdf uploads before processing", func(t *testing.T) {
		stub := &stubProcessor{result: approved}
		req := multipartRequest(t, map[string]string{"bill.pdf": "x", "photo.jpg": "y"}, "bill.pdf", "photo.jpg")
		rec := httptest.NewRecorder()

		NewRouter(stub, 0).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File photo.jpg is not a PDF", decodeDetail(t, rec))
		assert.False(t, stub.called)
	})

	t.Run("rejects an empty submission", func(t *testing.T) {
		stub := &stubProcessor{}
		rec := httptest.NewRecorder()

		NewRouter(stub, 0).ServeHTTP(rec, multipartRequest(t, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No files uploaded", decodeDetail(t, rec))
		assert.False(t, stub.called)
	})

	t.Run("rejects a non multipart body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/process-claim", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		NewRouter(&stubProcessor{}, 0).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("pipeline failure is a server error without partial result", func(t *testing.T) {
		stub := &stubProcessor{err: errors.New("document extraction failed: bill.pdf: timeout")}
		rec := httptest.NewRecorder()

		NewRouter(stub, 0).ServeHTTP(rec, multipartRequest(t, map[string]string{"bill.pdf": "x"}, "bill.pdf"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Error processing claim: document extraction failed: bill.pdf: timeout", decodeDetail(t, rec))
		assert.NotContains(t, rec.Body.String(), "claim_decision")
	})

	t.Run("client errors from the processor are bad requests", func(t *testing.T) {
		stub := &stubProcessor{err: services.ErrNoFiles}
		rec := httptest.NewRecorder()

		NewRouter(stub, 0).ServeHTTP(rec, multipartRequest(t, map[string]string{"bill.pdf": "x"}, "bill.pdf"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized upload", func(t *testing.T) {
		big := string(bytes.Repeat([]byte("a"), 4096))
		rec := httptest.NewRecorder()

		NewRouter(&stubProcessor{result: approved}, 1024).ServeHTTP(rec,
			multipartRequest(t, map[string]string{"bill.pdf": big}, "bill.pdf"))

		assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	})
}
