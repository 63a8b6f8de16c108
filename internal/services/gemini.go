package services

import (
	"context"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// contentGenerator is the part of *genai.GenerativeModel the services call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// refusalPhrases mark a model answer that declined the task.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// responseText concatenates the text parts of the first candidate and strips
// any markdown code fence around it.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			builder.WriteString(string(txt))
		}
	}

	content := strings.TrimSpace(builder.String())
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func isRefusal(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// describeGeminiError names the common failure classes of the Gemini API for logs.
func describeGeminiError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return "rate limit or quota exceeded"
	case strings.Contains(msg, "404"):
		return "model not found"
	case strings.Contains(msg, "deadline exceeded"):
		return "timeout"
	}
	return "unexpected error"
}
