package models

import "time"

// ClaimStatus is the outcome of a claim decision.
type ClaimStatus string

const (
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// ValidationResult aggregates everything that is wrong with a claim's document set.
type ValidationResult struct {
	MissingDocuments []DocumentType `json:"missing_documents" firestore:"missingDocuments"`
	Discrepancies    []string       `json:"discrepancies" firestore:"discrepancies"`
}

// ClaimDecision is the final verdict for a claim.
type ClaimDecision struct {
	Status ClaimStatus `json:"status" firestore:"status"`
	Reason string      `json:"reason" firestore:"reason"`
}

// ClaimProcessingResult is the response returned for a processed claim.
type ClaimProcessingResult struct {
	ClaimID       string           `json:"claim_id,omitempty"`
	Documents     []Document       `json:"documents"`
	Validation    ValidationResult `json:"validation"`
	ClaimDecision ClaimDecision    `json:"claim_decision"`
}

// UploadedFile is one raw file submitted as part of a claim.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// Claim record lifecycle states, mirroring the document status field the
// pipeline keeps in Firestore.
const (
	ClaimStateProcessing = "PROCESSING"
	ClaimStateDecided    = "DECIDED"
	ClaimStateFailed     = "FAILED"
)

// ClaimRecord is the Firestore record tracking one claim from intake to decision.
type ClaimRecord struct {
	ClaimID       string            `firestore:"claimId"`
	State         string            `firestore:"state"`
	Source        string            `firestore:"source,omitempty"`
	Filenames     []string          `firestore:"filenames"`
	FileHashes    []string          `firestore:"fileHashes"`
	ArchiveURIs   []string          `firestore:"archiveUris,omitempty"`
	DocumentTypes []DocumentType    `firestore:"documentTypes,omitempty"`
	Validation    *ValidationResult `firestore:"validation,omitempty"`
	Decision      *ClaimDecision    `firestore:"decision,omitempty"`
	ErrorDetails  string            `firestore:"errorDetails,omitempty"`
	CreatedAt     time.Time         `firestore:"createdAt"`
	DecidedAt     time.Time         `firestore:"decidedAt,omitempty"`
}
