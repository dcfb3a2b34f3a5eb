package retrieval

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/document"
)

var (
	ErrInvalidThreshold = errors.New("similarity threshold must be in [0, 1]")
	ErrInvalidTopK      = errors.New("top_k must be greater than zero")
)

type SearchResult struct {
	Chunk *document.DocumentChunk `json:"chunk"`
	Score float64                 `json:"score"`
}

// Embedder is the single-text slice of the embedding client used for
// queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSource provides the persisted chunk set of one document, ordered by
// ordinal.
type ChunkSource interface {
	ListChunksByDocumentID(documentID uuid.UUID) ([]*document.DocumentChunk, error)
}

type Service interface {
	// Search embeds the query and ranks the document's chunks by cosine
	// similarity. Results carry score >= threshold, at most topK entries,
	// descending by score with ties broken by chunk ordinal. No chunk
	// clearing the threshold is an empty result, not an error.
	Search(ctx context.Context, documentID uuid.UUID, query string, threshold float64, topK int) ([]SearchResult, error)
}

type service struct {
	chunks   ChunkSource
	embedder Embedder
}

func NewService(chunks ChunkSource, embedder Embedder) Service {
	return &service{chunks: chunks, embedder: embedder}
}

func (s *service) Search(ctx context.Context, documentID uuid.UUID, query string, threshold float64, topK int) ([]SearchResult, error) {
	log := config.WithContext(ctx)

	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to embed search query")
		return nil, err
	}

	chunks, err := s.chunks.ListChunksByDocumentID(documentID)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, topK)
	for _, c := range chunks {
		score := cosine(queryVec, c.Embedding)
		if score >= threshold {
			results = append(results, SearchResult{Chunk: c, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
