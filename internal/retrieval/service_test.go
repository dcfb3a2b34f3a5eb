package retrieval_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
)

type fixedEmbedder struct {
	vector []float32
}

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return e.vector, nil
}

type staticChunks struct {
	chunks []*document.DocumentChunk
}

func (s staticChunks) ListChunksByDocumentID(uuid.UUID) ([]*document.DocumentChunk, error) {
	return s.chunks, nil
}

func chunk(ordinal int, embedding []float32) *document.DocumentChunk {
	return &document.DocumentChunk{
		ID:        uuid.New(),
		Ordinal:   ordinal,
		Content:   "chunk",
		Embedding: embedding,
	}
}

func TestSearchValidation(t *testing.T) {
	svc := retrieval.NewService(staticChunks{}, fixedEmbedder{vector: []float32{1, 0}})

	t.Run("ThresholdOutOfRange", func(t *testing.T) {
		if _, err := svc.Search(context.Background(), uuid.New(), "q", 1.5, 5); !errors.Is(err, retrieval.ErrInvalidThreshold) {
			t.Errorf("expected ErrInvalidThreshold, got %v", err)
		}
	})

	t.Run("TopKZero", func(t *testing.T) {
		if _, err := svc.Search(context.Background(), uuid.New(), "q", 0.5, 0); !errors.Is(err, retrieval.ErrInvalidTopK) {
			t.Errorf("expected ErrInvalidTopK, got %v", err)
		}
	})
}

func TestSearchRanking(t *testing.T) {
	// Query vector along the x axis; chunk similarity is the cosine of the
	// angle each chunk vector makes with it.
	source := staticChunks{chunks: []*document.DocumentChunk{
		chunk(0, []float32{1, 0}),    // score 1.0
		chunk(1, []float32{1, 1}),    // score ~0.707
		chunk(2, []float32{0, 1}),    // score 0.0
		chunk(3, []float32{-1, 0}),   // score -1.0
		chunk(4, []float32{0.5, 0}),  // score 1.0, tie with ordinal 0
		chunk(5, []float32{4, 3}),    // score 0.8
	}}
	svc := retrieval.NewService(source, fixedEmbedder{vector: []float32{1, 0}})

	results, err := svc.Search(context.Background(), uuid.New(), "query", 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}

	wantOrdinals := []int{0, 4, 5, 1}
	if len(results) != len(wantOrdinals) {
		t.Fatalf("expected %d results, got %d", len(wantOrdinals), len(results))
	}
	for i, want := range wantOrdinals {
		if results[i].Chunk.Ordinal != want {
			t.Errorf("position %d: expected ordinal %d, got %d", i, want, results[i].Chunk.Ordinal)
		}
	}

	for i := 0; i+1 < len(results); i++ {
		if results[i].Score < results[i+1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	if math.Abs(results[2].Score-0.8) > 1e-6 {
		t.Errorf("expected score 0.8 at position 2, got %f", results[2].Score)
	}
}

func TestSearchThresholdMonotonicity(t *testing.T) {
	source := staticChunks{chunks: []*document.DocumentChunk{
		chunk(0, []float32{1, 0}),
		chunk(1, []float32{1, 1}),
		chunk(2, []float32{1, 3}),
		chunk(3, []float32{0, 1}),
	}}
	svc := retrieval.NewService(source, fixedEmbedder{vector: []float32{1, 0}})

	prev := len(source.chunks) + 1
	for _, threshold := range []float64{0, 0.25, 0.5, 0.75, 0.9, 1} {
		results, err := svc.Search(context.Background(), uuid.New(), "query", threshold, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) > prev {
			t.Errorf("raising threshold to %f increased result count %d -> %d", threshold, prev, len(results))
		}
		prev = len(results)
	}
}

func TestSearchTruncatesToTopK(t *testing.T) {
	source := staticChunks{chunks: []*document.DocumentChunk{
		chunk(0, []float32{1, 0}),
		chunk(1, []float32{1, 0}),
		chunk(2, []float32{1, 0}),
	}}
	svc := retrieval.NewService(source, fixedEmbedder{vector: []float32{1, 0}})

	results, err := svc.Search(context.Background(), uuid.New(), "query", 0.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(results))
	}
	// All scores tie; ordinal order must decide.
	if results[0].Chunk.Ordinal != 0 || results[1].Chunk.Ordinal != 1 {
		t.Errorf("ties not broken by ordinal: %d, %d", results[0].Chunk.Ordinal, results[1].Chunk.Ordinal)
	}
}

func TestSearchEmptyWhenNothingClearsThreshold(t *testing.T) {
	source := staticChunks{chunks: []*document.DocumentChunk{
		chunk(0, []float32{0, 1}),
	}}
	svc := retrieval.NewService(source, fixedEmbedder{vector: []float32{1, 0}})

	results, err := svc.Search(context.Background(), uuid.New(), "query", 0.9, 5)
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}
