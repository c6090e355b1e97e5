package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxbridge/voxbridge/pkg/Logger"
	"google.golang.org/genai"
)

type GeminiEmbedder struct {
	client    *genai.Client
	logger    *Logger.Logger
	maxTokens int
	modelName string
}

// NewGeminiEmbedder creates an embedder backed by the Gemini embeddings API.
func NewGeminiEmbedder(apiKey string, logger *Logger.Logger) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		logger:    logger,
		maxTokens: 2048,
		modelName: "text-embedding-004",
	}, nil
}

// Chunk implements Embedder interface
func (e *GeminiEmbedder) Chunk(text string) []string {
	return chunkText(text, e.maxTokens*3)
}

// Dimensions implements Embedder interface
func (e *GeminiEmbedder) Dimensions() int {
	// text-embedding-004 vectors
	return 768
}

// Embed implements Embedder interface
func (e *GeminiEmbedder) Embed(ctx context.Context, chunks []string) ([]Vector, error) {
	valid := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if s := strings.TrimSpace(chunk); s != "" {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return []Vector{}, nil
	}

	contents := make([]*genai.Content, 0, len(valid))
	for _, chunk := range valid {
		contents = append(contents, genai.NewContentFromText(chunk, genai.RoleUser))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings from Gemini: %w", err)
	}
	if len(result.Embeddings) != len(valid) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(valid), len(result.Embeddings))
	}

	embeddings := make([]Vector, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		if embedding.Values == nil {
			return nil, fmt.Errorf("embedding %d has no values", i)
		}
		embeddings[i] = Vector(embedding.Values)
	}

	e.logger.Debugf("Generated %d embeddings using Gemini", len(embeddings))
	return embeddings, nil
}

// EmbedSingle implements Embedder interface
func (e *GeminiEmbedder) EmbedSingle(ctx context.Context, text string) (Vector, error) {
	if strings.TrimSpace(text) == "" {
		return Vector{}, nil
	}
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return Vector{}, nil
	}
	return embeddings[0], nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
