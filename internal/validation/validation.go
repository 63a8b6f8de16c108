// Package validation reconciles the documents of a claim into a validation
// result and an approve/reject decision. Every function here is pure; the
// evaluation date is passed in explicitly.
package validation

import (
	"fmt"
	"time"

	"github.com/Lllllllleong/claimflow/internal/models"
)

// AttachIssues returns copies of docs, each carrying the issues its
// type-specific validator found.
func AttachIssues(docs []models.Document, asOf time.Time) []models.Document {
	out := make([]models.Document, len(docs))
	for i, doc := range docs {
		out[i] = doc.WithIssues(ValidateDocument(doc, asOf))
	}
	return out
}

// MissingDocuments lists the required types absent from docs, in required order.
func MissingDocuments(docs []models.Document) []models.DocumentType {
	found := make(map[models.DocumentType]bool, len(docs))
	for _, doc := range docs {
		found[doc.Type] = true
	}
	missing := []models.DocumentType{}
	for _, t := range models.RequiredDocumentTypes {
		if !found[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// Validate builds the validation result for documents that already carry their
// issues: per-document issues in document order, then cross-document checks.
func Validate(docs []models.Document) models.ValidationResult {
	discrepancies := []string{}
	for _, doc := range docs {
		for _, issue := range doc.Issues {
			discrepancies = append(discrepancies, fmt.Sprintf("%s: %s", doc.Type, issue))
		}
	}
	discrepancies = append(discrepancies, CheckConsistency(docs)...)
	return models.ValidationResult{
		MissingDocuments: MissingDocuments(docs),
		Discrepancies:    discrepancies,
	}
}

// Evaluate runs validation and decision over typed documents and assembles the
// claim result. Documents of unknown type are dropped first; the returned
// documents carry no issue lists.
func Evaluate(docs []models.Document, asOf time.Time) models.ClaimProcessingResult {
	typed := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Type.Known() {
			typed = append(typed, doc)
		}
	}

	validated := AttachIssues(typed, asOf)
	result := Validate(validated)
	decision := Decide(result)

	stripped := make([]models.Document, len(validated))
	for i, doc := range validated {
		stripped[i] = doc.WithoutIssues()
	}
	return models.ClaimProcessingResult{
		Documents:     stripped,
		Validation:    result,
		ClaimDecision: decision,
	}
}
