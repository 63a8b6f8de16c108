package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/claimflow/internal/api"
	"github.com/Lllllllleong/claimflow/internal/gcp"
	"github.com/Lllllllleong/claimflow/internal/services"
	"github.com/joho/godotenv"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	// A missing .env file is normal when deployed.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP(functionTarget, handleClaimAPI)
}

// functionTarget is the entry point name configured in GCP.
const functionTarget = "HandleClaimAPI"

// main starts a local server; in Cloud Functions the framework calls the registered handler directly.
func main() {
	if err := setDefaultFunctionTarget(); err != nil {
		slog.Error("Failed to set FUNCTION_TARGET", "error", err)
		os.Exit(1)
	}
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

// setDefaultFunctionTarget makes the local server route every path to the
// claim API, so /process-claim and /health resolve as they do when deployed.
// Without FUNCTION_TARGET the framework serves the function under /HandleClaimAPI.
func setDefaultFunctionTarget() error {
	if os.Getenv("FUNCTION_TARGET") != "" {
		return nil
	}
	return os.Setenv("FUNCTION_TARGET", functionTarget)
}

func handleClaimAPI(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		var processor *services.ClaimProcessorFunction
		processor, initErr = services.NewClaimProcessor(context.Background())
		if initErr != nil {
			return
		}
		maxUpload, err := gcp.GetEnvInt("MAX_UPLOAD_BYTES", int(api.DefaultMaxUploadBytes))
		if err != nil {
			initErr = err
			return
		}
		router = api.NewRouter(processor, int64(maxUpload))
	})
	if initErr != nil {
		slog.Error("Claim API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	router.ServeHTTP(w, r)
}
