package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Dear Hiring Manager,\n"),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("I am writing...  "),
			}},
		}},
	}
	assert.Equal(t, "Dear Hiring Manager,\nI am writing...", responseText(resp))
}

func TestGenerateWithoutKey(t *testing.T) {
	g, err := NewGeminiLLM(context.Background(), "", "", "", nil)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, DefaultModel, g.modelName)

	_, err = g.Generate(context.Background(), "", "write a letter")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = g.Generate(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrPromptRequired)
}
