package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lllllllleong/claimflow/internal/models"
)

func TestCheckConsistency(t *testing.T) {
	tests := []struct {
		name string
		docs []models.Document
		want []string
	}{
		{
			name: "consistent set",
			docs: []models.Document{completeBill(), completeDischarge(), completeIDCard()},
			want: []string{},
		},
		{
			name: "service date differs from discharge date",
			docs: []models.Document{
				withField(completeBill(), "date_of_service", "2024-01-11"),
				completeDischarge(),
				completeIDCard(),
			},
			want: []string{issueServiceDateMismatch},
		},
		{
			name: "names compared without whitespace normalisation",
			docs: []models.Document{
				completeBill(),
				completeDischarge(),
				withField(completeIDCard(), "patient_name", "Jane  Doe"),
			},
			want: []string{issuePatientNameMismatch},
		},
		{
			name: "names compared case sensitively",
			docs: []models.Document{
				completeDischarge(),
				withField(completeIDCard(), "patient_name", "jane doe"),
			},
			want: []string{issuePatientNameMismatch},
		},
		{
			name: "both rules fire in fixed order",
			docs: []models.Document{
				withField(completeIDCard(), "patient_name", "John Roe"),
				withField(completeBill(), "date_of_service", "2024-02-01"),
				completeDischarge(),
			},
			want: []string{issueServiceDateMismatch, issuePatientNameMismatch},
		},
		{
			name: "missing field on one side is a mismatch",
			docs: []models.Document{withoutField(completeBill(), "date_of_service"), completeDischarge()},
			want: []string{issueServiceDateMismatch},
		},
		{
			name: "rules silent without a discharge summary",
			docs: []models.Document{
				withField(completeBill(), "date_of_service", "1999-01-01"),
				withField(completeIDCard(), "patient_name", "Someone Else"),
			},
			want: []string{},
		},
		{
			name: "first occurrence of a type wins",
			docs: []models.Document{
				completeBill(),
				withField(completeBill(), "date_of_service", "2030-01-01"),
				completeDischarge(),
			},
			want: []string{},
		},
		{
			name: "empty set",
			docs: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckConsistency(tt.docs))
		})
	}
}
