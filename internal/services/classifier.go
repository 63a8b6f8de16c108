package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/models"
)

// classificationSnippetRunes bounds how much document text is sent for classification.
const classificationSnippetRunes = 500

// GeminiClassifier labels a document as bill, discharge summary or ID card.
type GeminiClassifier struct {
	model contentGenerator
}

// NewGeminiClassifier wraps a model configured with the classifier prompt.
func NewGeminiClassifier(model contentGenerator) *GeminiClassifier {
	return &GeminiClassifier{model: model}
}

// Classify never fails: when the model call errors the filename decides, and
// anything unrecognisable is DocumentTypeUnknown.
func (c *GeminiClassifier) Classify(ctx context.Context, text, filename string) models.DocumentType {
	prompt := fmt.Sprintf(gcp.ClassifierUserPrompt, filename, truncateRunes(text, classificationSnippetRunes))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		docType := ClassifyByFilename(filename)
		slog.Warn("Gemini classification failed. Using filename fallback.",
			"filename", filename, "error", err, "cause", describeGeminiError(err), "fallbackType", docType)
		return docType
	}
	return normalizeDocumentType(responseText(resp))
}

// ClassifyByFilename guesses the document type from keywords in its name.
func ClassifyByFilename(filename string) models.DocumentType {
	return normalizeDocumentType(filename)
}

// normalizeDocumentType maps free text onto a type tag by keyword. The checks
// run in a fixed order so "bill" wins over "summary" and "card".
func normalizeDocumentType(label string) models.DocumentType {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(label, "bill"):
		return models.DocumentTypeBill
	case strings.Contains(label, "discharge") || strings.Contains(label, "summary"):
		return models.DocumentTypeDischargeSummary
	case strings.Contains(label, "id") || strings.Contains(label, "card"):
		return models.DocumentTypeIDCard
	}
	return models.DocumentTypeUnknown
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
