package services

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/claimflow/internal/models"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range parts {
		if txt, ok := p.(genai.Text); ok {
			g.prompts = append(g.prompts, string(txt))
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return textResponse(g.reply), nil
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(s)}},
		}},
	}
}

// echoText treats file content as already-extracted text.
type echoText struct{}

func (echoText) ExtractText(content []byte) string { return string(content) }

// panickingText fails the way a parser does on a corrupt file.
type panickingText struct{}

func (panickingText) ExtractText([]byte) string { panic("corrupt xref table") }

// filenameClassifier classifies by filename only.
type filenameClassifier struct{}

func (filenameClassifier) Classify(_ context.Context, _, filename string) models.DocumentType {
	return ClassifyByFilename(filename)
}

// recordingClassifier classifies by filename and remembers the text it was given.
type recordingClassifier struct {
	mu    sync.Mutex
	texts []string
}

func (c *recordingClassifier) Classify(_ context.Context, text, filename string) models.DocumentType {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return ClassifyByFilename(filename)
}

type fakeExtractor struct {
	fields map[models.DocumentType]models.Fields
	errs   map[models.DocumentType]error
	// block makes Extract wait for context cancellation for these types.
	block  map[models.DocumentType]bool
}

func (e *fakeExtractor) Extract(ctx context.Context, docType models.DocumentType, _ string) (models.Fields, error) {
	if e.block[docType] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := e.errs[docType]; err != nil {
		return nil, err
	}
	return e.fields[docType], nil
}

type fakeStore struct {
	mu      sync.Mutex
	created []models.ClaimRecord
	updates map[string][][]firestore.Update
	err     error
}

func (s *fakeStore) Create(_ context.Context, record models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, record)
	return nil
}

func (s *fakeStore) Update(_ context.Context, claimID string, updates []firestore.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updates == nil {
		s.updates = map[string][][]firestore.Update{}
	}
	s.updates[claimID] = append(s.updates[claimID], updates)
	return s.err
}

func (s *fakeStore) lastValue(claimID, path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := s.updates[claimID]
	for i := len(batches) - 1; i >= 0; i-- {
		for _, u := range batches[i] {
			if u.Path == path {
				return u.Value, true
			}
		}
	}
	return nil, false
}

type fakeArchive struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (a *fakeArchive) Archive(_ context.Context, claimID string, index int, file models.UploadedFile) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	name := archiveObjectName(claimID, index, file.Filename)
	a.names = append(a.names, name)
	return "gs://archive/" + name, nil
}

type fakeReview struct {
	mu      sync.Mutex
	claims  []string
	failing bool
}

func (r *fakeReview) TriggerReview(_ context.Context, claimID string, _ models.ClaimDecision) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return "", errors.New("workflows unavailable")
	}
	r.claims = append(r.claims, claimID)
	return "executions/" + claimID, nil
}
