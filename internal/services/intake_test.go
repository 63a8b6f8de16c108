package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/claimflow/internal/models"
)

type fakeObjects struct {
	objects map[string][]byte
	listErr error
}

func (o *fakeObjects) List(_ context.Context, _, prefix string) ([]string, error) {
	if o.listErr != nil {
		return nil, o.listErr
	}
	var names []string
	for _, name := range []string{"claims/42/bill.pdf", "claims/42/discharge.pdf", "claims/42/id_card.pdf", "claims/42/notes.txt", "claims/42/READY"} {
		if _, ok := o.objects[name]; ok && len(name) > len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	return names, nil
}

func (o *fakeObjects) Read(_ context.Context, _, name string) ([]byte, error) {
	return o.objects[name], nil
}

type recordingRunner struct {
	source string
	files  []models.UploadedFile
}

func (r *recordingRunner) ProcessFrom(_ context.Context, source string, files []models.UploadedFile) (*models.ClaimProcessingResult, error) {
	r.source, r.files = source, files
	return &models.ClaimProcessingResult{ClaimID: "claim-42"}, nil
}

func TestClaimIntake_Process(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"claims/42/bill.pdf":      []byte("bill"),
		"claims/42/discharge.pdf": []byte("discharge"),
		"claims/42/id_card.pdf":   []byte("card"),
		"claims/42/notes.txt":     []byte("ignored"),
		"claims/42/READY":         nil,
	}}

	t.Run("ready marker loads the pdfs under its prefix", func(t *testing.T) {
		runner := &recordingRunner{}
		f := &ClaimIntakeFunction{objects: objects, processor: runner, config: ClaimIntakeConfig{ReadyMarker: "READY"}}

		res, err := f.Process(context.Background(), GCSEvent{Bucket: "intake", Name: "claims/42/READY"})
		require.NoError(t, err)
		assert.Equal(t, "claim-42", res.ClaimID)
		assert.Equal(t, "storage:gs://intake/claims/42/", runner.source)

		require.Len(t, runner.files, 3)
		assert.Equal(t, "bill.pdf", runner.files[0].Filename)
		assert.Equal(t, []byte("card"), runner.files[2].Content)
	})

	t.Run("other objects are ignored", func(t *testing.T) {
		runner := &recordingRunner{}
		f := &ClaimIntakeFunction{objects: objects, processor: runner, config: ClaimIntakeConfig{ReadyMarker: "READY"}}

		res, err := f.Process(context.Background(), GCSEvent{Bucket: "intake", Name: "claims/42/bill.pdf"})
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, runner.source)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		f := &ClaimIntakeFunction{
			objects:   &fakeObjects{listErr: errors.New("permission denied")},
			processor: &recordingRunner{},
			config:    ClaimIntakeConfig{ReadyMarker: "READY"},
		}
		_, err := f.Process(context.Background(), GCSEvent{Bucket: "intake", Name: "claims/42/READY"})
		assert.ErrorContains(t, err, "permission denied")
	})
}
