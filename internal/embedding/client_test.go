package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saulo-duarte/docquiz/internal/embedding"
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func writeEmbeddings(w http.ResponseWriter, vectors [][]float32) {
	type item struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	}
	out := struct {
		Data []item `json:"data"`
	}{}
	for i, v := range vectors {
		out.Data = append(out.Data, item{Embedding: v, Index: i})
	}
	_ = json.NewEncoder(w).Encode(out)
}

func newClient(t *testing.T, baseURL string) *embedding.Client {
	t.Helper()
	c, err := embedding.NewClient(embedding.Config{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEmbedCollapsesNewlines(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeEmbeddings(w, [][]float32{{0.1, 0.2}})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	vec, err := c.Embed(context.Background(), "line one\nline two\r\nline three")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2-dim vector, got %d", len(vec))
	}
	if want := "line one line two line three"; got.Input[0] != want {
		t.Errorf("newlines not collapsed: %q", got.Input[0])
	}
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeEmbeddings(w, [][]float32{{1, 2, 3}})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if _, err := c.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed should have succeeded after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (2 retries), got %d", calls)
	}
}

func TestEmbedDoesNotRetryAuthFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, embedding.ErrProviderAuth) {
		t.Fatalf("expected ErrProviderAuth, got %v", err)
	}
	if calls != 1 {
		t.Errorf("auth failure must not be retried, got %d calls", calls)
	}
}

func TestEmbedDoesNotRetryMalformedInput(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.Embed(context.Background(), "hello")
	if !errors.Is(err, embedding.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if calls != 1 {
		t.Errorf("malformed input must not be retried, got %d calls", calls)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = []float32{float32(i), float32(i)}
		}
		writeEmbeddings(w, vectors)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	results, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("result %d failed: %v", i, res.Err)
		}
		if res.Vector[0] != float32(i) {
			t.Errorf("result %d out of order: %v", i, res.Vector)
		}
	}
}

func TestEmbedBatchIsolatesItemFailures(t *testing.T) {
	// The batch call fails outright; per-item fallback then rejects exactly
	// one input. The other items must still come back with vectors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if strings.Contains(req.Input[0], "poison") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeEmbeddings(w, [][]float32{{1, 1}})
	}))
	defer srv.Close()

	c, err := embedding.NewClient(embedding.Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		MaxRetries: 1,
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := c.EmbedBatch(context.Background(), []string{"good", "poison", "also good"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy items must not fail: %v / %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, embedding.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput for poisoned item, got %v", results[1].Err)
	}
}

func TestEmbedPinsDimension(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeEmbeddings(w, [][]float32{{1, 2, 3}})
			return
		}
		writeEmbeddings(w, [][]float32{{1, 2}})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if _, err := c.Embed(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if c.Dimension() != 3 {
		t.Errorf("expected pinned dimension 3, got %d", c.Dimension())
	}
	if _, err := c.Embed(context.Background(), "second"); !errors.Is(err, embedding.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEmbedConcurrentCallsAgreeOnDimension(t *testing.T) {
	// One client is shared by the processing pipeline and the retriever, so
	// the first pin can happen from any goroutine. Run with -race.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, [][]float32{{1, 2, 3}})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Embed(context.Background(), fmt.Sprintf("text %d", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent embed %d failed: %v", i, err)
		}
	}
	if c.Dimension() != 3 {
		t.Errorf("expected pinned dimension 3, got %d", c.Dimension())
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := embedding.NewClient(embedding.Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	} else if !strings.Contains(fmt.Sprint(err), "API key") {
		t.Errorf("unexpected error: %v", err)
	}
}
