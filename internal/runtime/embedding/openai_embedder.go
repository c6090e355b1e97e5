package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

type OpenAIEmbedder struct {
	client    openai.Client
	logger    *Logger.Logger
	maxTokens int
	modelName string
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
func NewOpenAIEmbedder(apiKey, model string, logger *Logger.Logger) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		logger:    logger,
		maxTokens: 8192,
		modelName: model,
	}
}

// Chunk implements Embedder interface
func (e *OpenAIEmbedder) Chunk(text string) []string {
	// Rough estimation: 1 token is about 4 characters of English text.
	// Stay conservative to avoid hitting the model's token limit.
	return chunkText(text, e.maxTokens*3)
}

// Dimensions implements Embedder interface
func (e *OpenAIEmbedder) Dimensions() int {
	if e.modelName == string(openai.EmbeddingModelTextEmbedding3Large) {
		return 3072
	}
	return 1536
}

// Embed implements Embedder interface
func (e *OpenAIEmbedder) Embed(ctx context.Context, chunks []string) ([]Vector, error) {
	valid := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if s := strings.TrimSpace(chunk); s != "" {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return []Vector{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: valid},
		Model: openai.EmbeddingModel(e.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings from OpenAI: %w", err)
	}
	if len(resp.Data) != len(valid) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(valid), len(resp.Data))
	}

	embeddings := make([]Vector, len(resp.Data))
	for i, item := range resp.Data {
		vec := make(Vector, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}

	e.logger.Debugf("Generated %d embeddings using OpenAI", len(embeddings))
	return embeddings, nil
}

// EmbedSingle implements Embedder interface
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) (Vector, error) {
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

var _ Embedder = (*OpenAIEmbedder)(nil)
