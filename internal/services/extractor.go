package services

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/models"
)

// GeminiExtractor turns document text into raw fields for a known document type.
type GeminiExtractor struct {
	model contentGenerator
}

// NewGeminiExtractor wraps a model configured for JSON output.
func NewGeminiExtractor(model contentGenerator) *GeminiExtractor {
	return &GeminiExtractor{model: model}
}

// Extract returns the fields the model read from text. Values are not validated here.
func (e *GeminiExtractor) Extract(ctx context.Context, docType models.DocumentType, text string) (models.Fields, error) {
	template, ok := gcp.ExtractorUserPrompts[string(docType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, docType)
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(template, text)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate fields from gemini: %w", err)
	}

	content := responseText(resp)
	if content == "" {
		return nil, fmt.Errorf("gemini returned an empty response for %s", docType)
	}

	// Only a reply that is not a JSON object can be a refusal.
	var fields models.Fields
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		if isRefusal(content) {
			return nil, fmt.Errorf("%w while extracting %s", ErrModelRefusal, docType)
		}
		return nil, fmt.Errorf("failed to parse JSON from model for %s: %w", docType, err)
	}
	if fields == nil {
		fields = models.Fields{}
	}
	// The tag comes from classification, never from the model.
	delete(fields, "type")
	return fields, nil
}
