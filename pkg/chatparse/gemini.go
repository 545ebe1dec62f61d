package chatparse

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GeminiGenerator calls the Gemini API. A client is created per call;
// generation dominates the latency and the service issues one call per
// request.
type GeminiGenerator struct {
	apiKey string
	model  string
}

// NewGeminiGenerator returns a generator using the given API key and
// model name (e.g. "gemini-2.5-flash").
func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, model: model}
}

// Generate sends the prompt to Gemini and returns the concatenated text
// parts of the first candidate. It fails with ErrNotConfigured before
// any network activity when no API key is set.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errors.Wrap(ErrNotConfigured, "set GEMINI_API_KEY (get a free key from https://makersuite.google.com/app/apikey)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", errors.Wrap(err, "create gemini client")
	}
	defer client.Close()

	resp, err := client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
