// Ingests a directory of text documents into the knowledge collection.
// The collection is rebuilt from scratch on every run.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/retrieval"
	"github.com/voxbridge/voxbridge/internal/runtime/embedding"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

func main() {
	dir := flag.String("dir", "knowledge", "directory of .txt/.md documents to ingest")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall ingest deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := Logger.New(cfg.Debug)

	documents, err := readDocuments(*dir)
	if err != nil {
		logger.Fatalf("Reading documents: %v", err)
	}
	if len(documents) == 0 {
		logger.Fatalf("No .txt or .md documents found in %s", *dir)
	}
	logger.Infof("Loaded %d documents from %s", len(documents), *dir)

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "gemini":
		embedder, err = embedding.NewGeminiEmbedder(cfg.Embedding.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatalf("Embedder setup: %v", err)
		}
	default:
		embedder = embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, logger)
	}

	svc, err := retrieval.New(retrieval.Config{
		URL:            cfg.Qdrant.URL,
		CollectionName: cfg.Qdrant.Collection,
		APIKey:         cfg.Qdrant.APIKey,
	}, embedder, logger)
	if err != nil {
		logger.Fatalf("Retrieval setup: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	inserted, err := svc.RebuildCollection(ctx, documents)
	if err != nil {
		logger.Fatalf("Rebuild failed after %d chunks: %v", inserted, err)
	}

	total, err := svc.Count(ctx)
	if err != nil {
		logger.Fatalf("Counting points: %v", err)
	}
	logger.Infof("Ingest complete: %d chunks upserted, collection %s now holds %d points",
		inserted, cfg.Qdrant.Collection, total)
}

func readDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var documents []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			documents = append(documents, text)
		}
	}
	return documents, nil
}
