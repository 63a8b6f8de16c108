package models

// These structs define the JSON payloads exchanged over HTTP and with Cloud Workflows.

// HealthResponse is returned by the health-check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ReviewWorkflowArgument is the argument passed to the manual-review workflow.
type ReviewWorkflowArgument struct {
	ClaimID string      `json:"claimId"`
	Status  ClaimStatus `json:"status"`
	Reason  string      `json:"reason"`
}
