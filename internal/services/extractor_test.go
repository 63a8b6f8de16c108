package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/claimflow/internal/models"
)

func TestGeminiExtractor_Extract(t *testing.T) {
	tests := []struct {
		name        string
		docType     models.DocumentType
		reply       string
		err         error
		wantErr     error
		errContains string
		want        models.Fields
	}{
		{
			name:    "bill fields",
			docType: models.DocumentTypeBill,
			reply:   `{"hospital_name":"General Hospital","total_amount":500,"date_of_service":"2024-01-10"}`,
			want: models.Fields{
				"hospital_name":   "General Hospital",
				"total_amount":    500.0,
				"date_of_service": "2024-01-10",
			},
		},
		{
			name:    "fenced json and model supplied type is dropped",
			docType: models.DocumentTypeIDCard,
			reply:   "```json\n{\"type\":\"bill\",\"patient_name\":\"Jane Doe\"}\n```",
			want:    models.Fields{"patient_name": "Jane Doe"},
		},
		{
			name:    "json null becomes empty fields",
			docType: models.DocumentTypeIDCard,
			reply:   "null",
			want:    models.Fields{},
		},
		{
			name:    "unknown type is rejected before calling the model",
			docType: models.DocumentTypeUnknown,
			wantErr: ErrUnsupportedType,
		},
		{
			name:        "service error",
			docType:     models.DocumentTypeBill,
			err:         errors.New("unavailable"),
			errContains: "failed to generate fields from gemini",
		},
		{
			name:        "empty response",
			docType:     models.DocumentTypeBill,
			reply:       "   ",
			errContains: "empty response",
		},
		{
			name:    "refusal",
			docType: models.DocumentTypeDischargeSummary,
			reply:   "I am unable to help with medical records.",
			wantErr: ErrModelRefusal,
		},
		{
			name:    "refusal-like prose inside a field value",
			docType: models.DocumentTypeDischargeSummary,
			reply:   `{"patient_name":"Jane Doe","diagnosis":"Patient states I cannot provide a history"}`,
			want: models.Fields{
				"patient_name": "Jane Doe",
				"diagnosis":    "Patient states I cannot provide a history",
			},
		},
		{
			name:        "not an object",
			docType:     models.DocumentTypeBill,
			reply:       `["General Hospital"]`,
			errContains: "failed to parse JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply, err: tt.err}
			got, err := NewGeminiExtractor(gen).Extract(context.Background(), tt.docType, "document text")

			if tt.wantErr != nil || tt.errContains != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeminiExtractor_PromptCarriesDocumentText(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	_, err := NewGeminiExtractor(gen).Extract(context.Background(), models.DocumentTypeDischargeSummary, "Patient: Jane Doe, 100% recovered")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "hospital discharge summary")
	assert.Contains(t, gen.prompts[0], "Patient: Jane Doe, 100% recovered")
}
