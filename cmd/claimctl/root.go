package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Lllllllleong/claimflow/internal/models"
	"github.com/Lllllllleong/claimflow/internal/services"
	"github.com/Lllllllleong/claimflow/internal/validation"
	"github.com/spf13/cobra"
)

// errRejected is returned with --fail-on-reject so scripts can branch on the exit code.
var errRejected = errors.New("claim rejected")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "claimctl",
		Short:        "Validate and decide medical insurance claims",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd(), newProcessCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var asOf string
	var failOnReject bool

	cmd := &cobra.Command{
		Use:   "validate <documents.json>",
		Short: "Run validation and decision on already-extracted documents",
		Long: `Reads a JSON array of documents, each an object with a "type" tag
(bill, discharge_summary, id_card) and its raw fields, and prints the claim result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluationDate := time.Now()
			if asOf != "" {
				parsed, err := time.Parse("2006-01-02", asOf)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
				evaluationDate = parsed
			}

			docs, err := readDocuments(args[0])
			if err != nil {
				return err
			}
			result := validation.Evaluate(docs, evaluationDate)
			return printResult(cmd.OutOrStdout(), &result, failOnReject)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluation date for expiry checks (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&failOnReject, "fail-on-reject", false, "exit non-zero when the claim is rejected")
	return cmd
}

func newProcessCmd() *cobra.Command {
	var failOnReject bool

	cmd := &cobra.Command{
		Use:   "process <file.pdf>...",
		Short: "Run the full claim pipeline on local PDF files",
		Long:  "Classifies and extracts each PDF with Vertex AI using the same environment as the deployed services.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]models.UploadedFile, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				files = append(files, models.UploadedFile{Filename: filepath.Base(path), Content: content})
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			processor, err := services.NewClaimProcessor(ctx)
			if err != nil {
				return err
			}
			defer processor.Close()

			result, err := processor.ProcessFrom(ctx, services.SourceCLI, files)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, failOnReject)
		},
	}
	cmd.Flags().BoolVar(&failOnReject, "fail-on-reject", false, "exit non-zero when the claim is rejected")
	return cmd
}

func readDocuments(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse documents from %s: %w", path, err)
	}
	return docs, nil
}

func printResult(w io.Writer, result *models.ClaimProcessingResult, failOnReject bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if failOnReject && result.ClaimDecision.Status == models.ClaimStatusRejected {
		return errRejected
	}
	return nil
}
