package validation

import (
	"strings"

	"github.com/Lllllllleong/claimflow/internal/models"
)

// ApprovedReason is the fixed reason attached to every approved claim.
const ApprovedReason = "All required documents present and data is consistent"

// Decide maps a validation result onto exactly one claim decision.
func Decide(result models.ValidationResult) models.ClaimDecision {
	if len(result.MissingDocuments) == 0 && len(result.Discrepancies) == 0 {
		return models.ClaimDecision{Status: models.ClaimStatusApproved, Reason: ApprovedReason}
	}
	return models.ClaimDecision{Status: models.ClaimStatusRejected, Reason: rejectionReason(result)}
}

func rejectionReason(result models.ValidationResult) string {
	var clauses []string
	if len(result.MissingDocuments) > 0 {
		tags := make([]string, len(result.MissingDocuments))
		for i, t := range result.MissingDocuments {
			tags[i] = string(t)
		}
		clauses = append(clauses, "Missing required documents: "+strings.Join(tags, ", "))
	}
	if len(result.Discrepancies) > 0 {
		clauses = append(clauses, "Data discrepancies found: "+strings.Join(result.Discrepancies, "; "))
	}
	return strings.Join(clauses, " ")
}
