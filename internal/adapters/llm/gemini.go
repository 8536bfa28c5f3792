package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient implements domain.AnswerClient on Vertex AI (Gemini).
// Conversation state per session key lives here, in memory: the orchestrator
// treats the service as opaque text-in/text-out.
type GeminiClient struct {
	client    *genai.Client
	modelName string

	mu       sync.Mutex
	sessions map[string][]*genai.Content
}

// NewGeminiClient creates an answer client based on Vertex AI.
// Uses environment variables for project and region to simplify.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	projectID := os.Getenv("PLAYDEX_GCP_PROJECT")
	location := os.Getenv("PLAYDEX_GCP_LOCATION")
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("PLAYDEX_GCP_PROJECT and PLAYDEX_GCP_LOCATION must be set")
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		sessions:  make(map[string][]*genai.Content),
	}, nil
}

// ResetSession drops the remote conversation held under sessionKey.
func (g *GeminiClient) ResetSession(ctx context.Context, sessionKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionKey)
	return nil
}

// Ask implements domain.AnswerClient using Vertex AI.
func (g *GeminiClient) Ask(ctx context.Context, payload string, sessionKey string) (string, error) {
	g.mu.Lock()
	history := g.sessions[sessionKey]
	g.mu.Unlock()

	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, genai.NewContentFromText(payload, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}

	g.mu.Lock()
	g.sessions[sessionKey] = append(contents, genai.NewContentFromText(text, genai.RoleModel))
	g.mu.Unlock()

	return text, nil
}
