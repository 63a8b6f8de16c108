package validation

import "github.com/Lllllllleong/claimflow/internal/models"

const (
	issueServiceDateMismatch = "Bill service date does not match discharge date"
	issuePatientNameMismatch = "Patient name on ID card does not match discharge summary"
)

// CheckConsistency compares fields across documents of different types. When a
// type occurs more than once, only its first occurrence is compared. Rules whose
// pair of documents is incomplete stay silent; absence is reported as a missing
// document instead.
func CheckConsistency(docs []models.Document) []string {
	issues := []string{}

	bill, hasBill := firstOfType(docs, models.DocumentTypeBill)
	discharge, hasDischarge := firstOfType(docs, models.DocumentTypeDischargeSummary)
	idCard, hasIDCard := firstOfType(docs, models.DocumentTypeIDCard)

	if hasBill && hasDischarge &&
		!sameRawValue(bill.Fields, "date_of_service", discharge.Fields, "discharge_date") {
		issues = append(issues, issueServiceDateMismatch)
	}
	if hasIDCard && hasDischarge &&
		!sameRawValue(idCard.Fields, "patient_name", discharge.Fields, "patient_name") {
		issues = append(issues, issuePatientNameMismatch)
	}
	return issues
}

func firstOfType(docs []models.Document, t models.DocumentType) (models.Document, bool) {
	for _, doc := range docs {
		if doc.Type == t {
			return doc, true
		}
	}
	return models.Document{}, false
}
