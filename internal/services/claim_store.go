package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/claimflow/internal/models"
)

// FirestoreClaimStore tracks claim records in a Firestore collection keyed by claim ID.
type FirestoreClaimStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreClaimStore stores records in the named collection.
func NewFirestoreClaimStore(client *firestore.Client, collection string) *FirestoreClaimStore {
	return &FirestoreClaimStore{client: client, collection: collection}
}

// Create writes the initial record. It fails if the claim ID is already taken.
func (s *FirestoreClaimStore) Create(ctx context.Context, record models.ClaimRecord) error {
	if _, err := s.client.Collection(s.collection).Doc(record.ClaimID).Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create claim record: %w", err)
	}
	return nil
}

// Update merges the given fields into an existing record.
func (s *FirestoreClaimStore) Update(ctx context.Context, claimID string, updates []firestore.Update) error {
	if _, err := s.client.Collection(s.collection).Doc(claimID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update claim record %s: %w", claimID, err)
	}
	return nil
}

// decidedUpdates is the record change for a claim that reached a decision.
func decidedUpdates(result models.ClaimProcessingResult, archiveURIs []string, decidedAt time.Time) []firestore.Update {
	types := make([]models.DocumentType, len(result.Documents))
	for i, doc := range result.Documents {
		types[i] = doc.Type
	}
	updates := []firestore.Update{
		{Path: "state", Value: models.ClaimStateDecided},
		{Path: "documentTypes", Value: types},
		{Path: "validation", Value: result.Validation},
		{Path: "decision", Value: result.ClaimDecision},
		{Path: "decidedAt", Value: decidedAt},
	}
	if len(archiveURIs) > 0 {
		updates = append(updates, firestore.Update{Path: "archiveUris", Value: archiveURIs})
	}
	return updates
}

// failedUpdates is the record change for a claim whose processing failed.
func failedUpdates(details string) []firestore.Update {
	return []firestore.Update{
		{Path: "state", Value: models.ClaimStateFailed},
		{Path: "errorDetails", Value: details},
	}
}
