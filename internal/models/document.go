package models

import (
	"encoding/json"
	"fmt"
)

// DocumentType is the classification tag of an uploaded claim document.
type DocumentType string

const (
	DocumentTypeBill             DocumentType = "bill"
	DocumentTypeDischargeSummary DocumentType = "discharge_summary"
	DocumentTypeIDCard           DocumentType = "id_card"
	DocumentTypeUnknown          DocumentType = "unknown"
)

// RequiredDocumentTypes is the set of documents every claim must contain, in
// the order missing documents are reported.
var RequiredDocumentTypes = []DocumentType{
	DocumentTypeBill,
	DocumentTypeDischargeSummary,
	DocumentTypeIDCard,
}

// documentFields lists the business fields of each document type, in output order.
var documentFields = map[DocumentType][]string{
	DocumentTypeBill:             {"hospital_name", "total_amount", "date_of_service"},
	DocumentTypeDischargeSummary: {"patient_name", "diagnosis", "admission_date", "discharge_date"},
	DocumentTypeIDCard:           {"patient_name", "insurance_id", "plan_name", "expiration_date"},
}

// Known reports whether t is one of the typed document kinds.
func (t DocumentType) Known() bool {
	_, ok := documentFields[t]
	return ok
}

// FieldNames returns the business fields carried by documents of type t.
func (t DocumentType) FieldNames() []string {
	return documentFields[t]
}

// Fields holds raw extracted values keyed by field name. Values are whatever the
// extraction service produced (strings, numbers, nil) and are not yet validated.
type Fields map[string]any

// Document is one classified and extracted claim document.
type Document struct {
	Type   DocumentType
	Fields Fields
	// Issues is populated during validation and never serialised.
	Issues []string
}

// WithIssues returns a copy of d carrying the given issues.
func (d Document) WithIssues(issues []string) Document {
	d.Issues = append([]string(nil), issues...)
	return d
}

// WithoutIssues returns a copy of d with the transient issue list removed.
func (d Document) WithoutIssues() Document {
	d.Issues = nil
	return d
}

// MarshalJSON flattens the document into {"type": ..., <business fields>}.
// Fields the extractor did not return are omitted.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+1)
	for _, name := range d.Type.FieldNames() {
		if v, ok := d.Fields[name]; ok {
			out[name] = v
		}
	}
	out["type"] = d.Type
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened form produced by MarshalJSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tag, ok := raw["type"].(string)
	if !ok {
		return fmt.Errorf("document is missing a string \"type\" field")
	}
	delete(raw, "type")
	d.Type = DocumentType(tag)
	d.Fields = Fields(raw)
	d.Issues = nil
	return nil
}
