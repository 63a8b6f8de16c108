package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/claimflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	intakeInstance *services.ClaimIntakeFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS finalize events here.
	functions.CloudEvent("ProcessClaimUpload", processClaimUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func processClaimUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var processor *services.ClaimProcessorFunction
		processor, initErr = services.NewClaimProcessor(context.Background())
		if initErr != nil {
			return
		}
		intakeInstance, initErr = services.NewClaimIntake(context.Background(), processor)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	result, err := intakeInstance.Process(ctx, gcsEvent)
	if err != nil {
		if services.IsClientError(err) {
			// Retrying cannot fix a malformed submission.
			slog.Warn("Claim submission rejected", "error", err, "gcsObject", gcsEvent.Name)
			return nil
		}
		return err
	}
	if result != nil {
		slog.Info("Claim from storage decided.", "claimId", result.ClaimID, "status", result.ClaimDecision.Status)
	}
	return nil
}
