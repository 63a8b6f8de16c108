package services

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/claimflow/internal/models"
)

// WorkflowReviewTrigger hands rejected claims to a Cloud Workflows manual-review flow.
type WorkflowReviewTrigger struct {
	client *executions.Client
	parent string
}

// NewWorkflowReviewTrigger targets projects/<project>/locations/<location>/workflows/<workflowID>.
func NewWorkflowReviewTrigger(client *executions.Client, projectID, location, workflowID string) *WorkflowReviewTrigger {
	return &WorkflowReviewTrigger{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}
}

// TriggerReview starts one workflow execution for the claim and returns its name.
func (w *WorkflowReviewTrigger) TriggerReview(ctx context.Context, claimID string, decision models.ClaimDecision) (string, error) {
	req, err := reviewExecutionRequest(w.parent, claimID, decision)
	if err != nil {
		return "", err
	}
	execution, err := w.client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger review workflow execution: %w", err)
	}
	return execution.GetName(), nil
}

func reviewExecutionRequest(parent, claimID string, decision models.ClaimDecision) (*executionspb.CreateExecutionRequest, error) {
	payload, err := json.Marshal(models.ReviewWorkflowArgument{
		ClaimID: claimID,
		Status:  decision.Status,
		Reason:  decision.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	return &executionspb.CreateExecutionRequest{
		Parent: parent,
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	}, nil
}
