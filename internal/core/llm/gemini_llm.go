package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

const DefaultModel = "gemini-1.5-flash"

var (
	ErrNoAPIKey       = errors.New("no gemini api key configured")
	ErrEmptyResponse  = errors.New("no content generated")
	ErrPromptRequired = errors.New("prompt is empty")
)

// GeminiLLM calls Gemini with the server key, or with a per-user key when one is passed.
type GeminiLLM struct {
	client       *genai.Client
	modelName    string
	systemPrompt string
	log          *logger.Logger
}

// NewGeminiLLM builds a provider. An empty apiKey is allowed; every request must then
// bring its own key.
func NewGeminiLLM(ctx context.Context, apiKey, modelName, systemPrompt string, log *logger.Logger) (*GeminiLLM, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = logger.Nop()
	}
	g := &GeminiLLM{modelName: modelName, systemPrompt: systemPrompt, log: log}
	if apiKey != "" {
		cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		g.client = cl
	}
	return g, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}

	cl := g.client
	if apiKey != "" {
		userClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return "", fmt.Errorf("gemini client: %w", err)
		}
		defer userClient.Close()
		cl = userClient
	}
	if cl == nil {
		return "", ErrNoAPIKey
	}

	m := cl.GenerativeModel(g.modelName)
	if g.systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(g.systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.log.Debug("gemini response", "model", g.modelName, "chars", len(text), "user_key", apiKey != "")
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
