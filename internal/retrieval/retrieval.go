// Package retrieval backs knowledge lookups with a Qdrant vector
// collection. Documents are chunked, embedded, and upserted by the
// ingest flow; calls query the collection for grounding context.
package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/voxbridge/voxbridge/internal/runtime/embedding"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

const payloadTextKey = "text"

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// CollectionName is the name of the collection to search.
	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string

	// TopK caps the number of context passages returned per query.
	TopK int
}

// Service implements knowledge search and collection maintenance.
type Service struct {
	client         *qdrant.Client
	embedder       embedding.Embedder
	collectionName string
	topK           int
	logger         *Logger.Logger
}

// New creates a retrieval service against a Qdrant server.
func New(cfg Config, embedder embedding.Embedder, logger *Logger.Logger) (*Service, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}
	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	return &Service{
		client:         client,
		embedder:       embedder,
		collectionName: cfg.CollectionName,
		topK:           topK,
		logger:         logger,
	}, nil
}

// Search embeds the query and returns the text payloads of the nearest
// documents, best match first. Points without a text payload are skipped.
func (s *Service) Search(ctx context.Context, query string) ([]string, error) {
	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := uint64(s.topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	contexts := make([]string, 0, len(points))
	for _, point := range points {
		if point.Payload == nil {
			continue
		}
		if v, ok := point.Payload[payloadTextKey]; ok {
			if text := v.GetStringValue(); text != "" {
				contexts = append(contexts, text)
			}
		}
	}
	return contexts, nil
}

// RebuildCollection drops and recreates the collection, then chunks,
// embeds, and upserts every document. Point IDs are assigned
// sequentially across all documents.
func (s *Service) RebuildCollection(ctx context.Context, documents []string) (int, error) {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return 0, fmt.Errorf("check collection: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collectionName); err != nil {
			return 0, fmt.Errorf("delete collection: %w", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.embedder.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}

	nextID := uint64(0)
	for _, doc := range documents {
		chunks := s.embedder.Chunk(doc)
		if len(chunks) == 0 {
			continue
		}
		vectors, err := s.embedder.Embed(ctx, chunks)
		if err != nil {
			return int(nextID), fmt.Errorf("embed document: %w", err)
		}

		points := make([]*qdrant.PointStruct, 0, len(chunks))
		for i, chunk := range chunks {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(nextID),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(map[string]any{payloadTextKey: chunk}),
			})
			nextID++
		}

		_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collectionName,
			Points:         points,
		})
		if err != nil {
			return int(nextID), fmt.Errorf("upsert points: %w", err)
		}
		s.logger.Infof("Upserted %d chunks into %s", len(points), s.collectionName)
	}

	return int(nextID), nil
}

// Count returns the number of points in the collection.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collectionName,
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return count, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}
