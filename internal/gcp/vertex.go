package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultGeminiModel is used when GEMINI_MODEL is not set.
const DefaultGeminiModel = "gemini-1.5-pro"

// --- Classifier Model Prompts ---
const ClassifierSystemPrompt = "You are a medical insurance document classifier. You read the opening text of a scanned claim document and name its type."
const ClassifierUserPrompt = `Analyze the following document content and filename to determine the document type.
Classify it as one of: 'bill', 'discharge_summary', 'id_card'.

Filename: %s

Document content snippet:
%s...

Return only the document type as a single word (bill, discharge_summary, or id_card).`

// --- Extractor Model Prompts ---
const ExtractorSystemPrompt = "You are a helpful assistant that extracts structured data from medical documents. You must output a single valid JSON object."

// ExtractorUserPrompts holds one prompt per document type. Each takes the document text.
var ExtractorUserPrompts = map[string]string{
	"bill": `Extract the following information from this medical bill:
- hospital_name: Hospital name
- total_amount: Total amount, as a number
- date_of_service: Date of service (in YYYY-MM-DD format)

Bill text:
%s

Return the information as a JSON object using exactly these keys.`,

	"discharge_summary": `Extract the following information from this hospital discharge summary:
- patient_name: Patient name
- diagnosis: Diagnosis
- admission_date: Admission date (in YYYY-MM-DD format)
- discharge_date: Discharge date (in YYYY-MM-DD format)

Discharge summary text:
%s

Return the information as a JSON object using exactly these keys.`,

	"id_card": `Extract the following information from this insurance ID card:
- patient_name: Patient name
- insurance_id: Insurance ID
- plan_name: Plan name
- expiration_date: Expiration date (in YYYY-MM-DD format, omit if not printed)

ID card text:
%s

Return the information as a JSON object using exactly these keys.`,
}

// VertexClient holds the pre-configured generative models used to read claim documents.
type VertexClient struct {
	ClassifierModel *genai.GenerativeModel
	ExtractorModel  *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a client holding the classifier and extractor models.
// The underlying client is safe for concurrent use across document extractions.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the classifier model ---
	classifierModel := baseClient.GenerativeModel(modelName)
	classifierModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ClassifierSystemPrompt)},
	}
	classifierModel.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.0),
		MaxOutputTokens: genai.Ptr[int32](16),
	}

	// --- Configure the extractor model ---
	extractorModel := baseClient.GenerativeModel(modelName)
	extractorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractorSystemPrompt)},
	}
	extractorModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	// Medical text trips the default filters on diagnoses.
	extractorModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		ClassifierModel: classifierModel,
		ExtractorModel:  extractorModel,
		baseClient:      baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
