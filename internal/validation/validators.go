package validation

import (
	"fmt"
	"time"

	"github.com/Lllllllleong/claimflow/internal/models"
)

// documentRules binds a document type to its required fields and the
// type-specific format checks that run after the presence check.
type documentRules struct {
	required []string
	label    string
	check    func(fields models.Fields, asOf time.Time) []string
}

var rulesByType = map[models.DocumentType]documentRules{
	models.DocumentTypeBill: {
		required: []string{"hospital_name", "total_amount", "date_of_service"},
		label:    "bill document",
		check:    checkBill,
	},
	models.DocumentTypeDischargeSummary: {
		required: []string{"patient_name", "diagnosis", "admission_date", "discharge_date"},
		label:    "discharge summary",
		check:    checkDischargeSummary,
	},
	models.DocumentTypeIDCard: {
		required: []string{"patient_name", "insurance_id", "plan_name"},
		label:    "ID card",
		check:    checkIDCard,
	},
}

// ValidateDocument returns the issues found in a single document. Documents of
// an unknown type have no rules and produce no issues. The result is never nil.
func ValidateDocument(doc models.Document, asOf time.Time) []string {
	issues := []string{}
	rules, ok := rulesByType[doc.Type]
	if !ok {
		return issues
	}
	for _, name := range rules.required {
		if !present(doc.Fields, name) {
			issues = append(issues, fmt.Sprintf("Missing %s in %s", name, rules.label))
		}
	}
	return append(issues, rules.check(doc.Fields, asOf)...)
}

func checkBill(fields models.Fields, _ time.Time) []string {
	if !present(fields, "total_amount") {
		return nil
	}
	amount, ok := parseAmount(fields["total_amount"])
	if !ok {
		return []string{"Invalid bill amount format"}
	}
	if amount <= 0 {
		return []string{"Bill amount must be greater than zero"}
	}
	return nil
}

func checkDischargeSummary(fields models.Fields, _ time.Time) []string {
	hasAdmission := present(fields, "admission_date")
	hasDischarge := present(fields, "discharge_date")

	var admission, discharge time.Time
	admissionOK, dischargeOK := true, true
	if hasAdmission {
		admission, admissionOK = parseDate(fields["admission_date"])
	}
	if hasDischarge {
		discharge, dischargeOK = parseDate(fields["discharge_date"])
	}
	if !admissionOK || !dischargeOK {
		return []string{"Invalid date format in discharge summary"}
	}
	// Ordering is only meaningful once both dates parsed.
	if hasAdmission && hasDischarge && admission.After(discharge) {
		return []string{"Admission date cannot be after discharge date"}
	}
	return nil
}

func checkIDCard(fields models.Fields, asOf time.Time) []string {
	if !present(fields, "expiration_date") {
		return nil
	}
	expiration, ok := parseDate(fields["expiration_date"])
	if !ok {
		return []string{"Invalid expiration date format in ID card"}
	}
	if calendarDay(expiration).Before(calendarDay(asOf)) {
		return []string{"Insurance ID card is expired"}
	}
	return nil
}
